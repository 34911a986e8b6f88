package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/remote"
	"github.com/and161185/stock-keeper/internal/resolver"
	"github.com/and161185/stock-keeper/internal/scan"
	"github.com/and161185/stock-keeper/internal/scheduler"
	"github.com/and161185/stock-keeper/internal/syncer"
)

// ---- utils ----

func (c *cli) printJSON(v any) {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func need(fs *flag.FlagSet, names ...string) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, n := range names {
		if !set[n] {
			return fmt.Errorf("%w: %s: need -%s", errUsage, fs.Name(), n)
		}
	}
	return nil
}

func (c *cli) readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(p)
}

// itemFlags binds every editable item field.
type itemFlags struct {
	name, desc, category, location, supplier, barcode, notes *string
	qty, min                                                 *int
	price                                                    *float64
}

func bindItemFlags(fs *flag.FlagSet) itemFlags {
	return itemFlags{
		name:     fs.String("name", "", "name"),
		desc:     fs.String("desc", "", "description"),
		category: fs.String("category", "", "category"),
		location: fs.String("location", "", "storage location"),
		supplier: fs.String("supplier", "", "supplier"),
		barcode:  fs.String("barcode", "", "barcode"),
		notes:    fs.String("notes", "", "notes"),
		qty:      fs.Int("qty", 0, "quantity on hand"),
		min:      fs.Int("min", 0, "low-stock threshold"),
		price:    fs.Float64("price", 0, "unit price"),
	}
}

// apply copies the flags that were set on the command line onto it.
func (f itemFlags) apply(fs *flag.FlagSet, it *model.NewItem) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "name":
			it.Name = *f.name
		case "desc":
			it.Description = *f.desc
		case "category":
			it.Category = *f.category
		case "location":
			it.Location = *f.location
		case "supplier":
			it.Supplier = *f.supplier
		case "barcode":
			it.Barcode = *f.barcode
		case "notes":
			it.Notes = *f.notes
		case "qty":
			it.Quantity = *f.qty
		case "min":
			it.MinQuantity = *f.min
		case "price":
			p := *f.price
			it.UnitPrice = &p
		}
	})
}

// ---- commands ----

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	secret := fs.String("secret", "", "shared secret")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, "secret"); err != nil {
		return err
	}
	if c.cfg.RemoteURL == "" {
		return fmt.Errorf("%w: login: remote_url is not configured", errUsage)
	}

	rc := remote.New(remote.Config{BaseURL: c.cfg.RemoteURL, Timeout: c.cfg.RemoteTimeout}, c.log)
	tok, exp, err := rc.IssueKey(ctx, *secret)
	if err != nil {
		return err
	}
	if err := saveToken(c.dir, tok, exp); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func (c *cli) items(context.Context, []string) error {
	c.printJSON(c.coord.Snapshot().Items)
	return nil
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs := c.flags("add")
	f := bindItemFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	var n model.NewItem
	f.apply(fs, &n)
	it, err := c.coord.AddItem(ctx, n)
	if err != nil {
		return err
	}
	c.printJSON(it)
	return nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	fs := c.flags("edit")
	id := fs.String("id", "", "item id")
	f := bindItemFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, "id"); err != nil {
		return err
	}
	cur, ok := c.coord.Snapshot().Item(*id)
	if !ok {
		return fmt.Errorf("item %s: %w", *id, errs.ErrNotFound)
	}
	n := cur.Draft()
	f.apply(fs, &n)
	upd := n.Materialize(cur.ID, cur.CreatedAt)
	it, err := c.coord.UpdateItem(ctx, upd)
	if err != nil {
		return err
	}
	c.printJSON(it)
	return nil
}

func (c *cli) rm(ctx context.Context, args []string) error {
	fs := c.flags("rm")
	id := fs.String("id", "", "item id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, "id"); err != nil {
		return err
	}
	if err := c.coord.DeleteItem(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func (c *cli) bulkAdd(ctx context.Context, args []string) error {
	fs := c.flags("bulk-add")
	file := fs.String("file", "", "JSON array of items ('-'=stdin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, "file"); err != nil {
		return err
	}
	b, err := c.readAll(*file)
	if err != nil {
		return err
	}
	var batch []model.NewItem
	if err := json.Unmarshal(b, &batch); err != nil {
		return fmt.Errorf("%w: bulk-add: %v", errUsage, err)
	}
	out, err := c.coord.BulkAddItems(ctx, batch)
	if err != nil {
		return err
	}
	c.printJSON(out)
	return nil
}

func (c *cli) take(ctx context.Context, args []string) error {
	fs := c.flags("take")
	id := fs.String("id", "", "item id")
	qty := fs.Int("qty", 0, "units to take out")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, "id", "qty"); err != nil {
		return err
	}
	it, err := c.coord.Withdraw(ctx, *id, *qty)
	if err != nil {
		return err
	}
	c.printJSON(it)
	return nil
}

func (c *cli) sites(context.Context, []string) error {
	c.printJSON(c.coord.Snapshot().JobSites)
	return nil
}

func (c *cli) addSite(ctx context.Context, args []string) error {
	fs := c.flags("add-site")
	name := fs.String("name", "", "name")
	addr := fs.String("address", "", "address")
	desc := fs.String("desc", "", "description")
	inactive := fs.Bool("inactive", false, "create as inactive")
	if err := parse(fs, args); err != nil {
		return err
	}
	js, err := c.coord.AddJobSite(ctx, model.NewJobSite{
		Name: *name, Address: *addr, Description: *desc, Active: !*inactive,
	})
	if err != nil {
		return err
	}
	c.printJSON(js)
	return nil
}

func (c *cli) use(ctx context.Context, args []string) error {
	fs := c.flags("use")
	item := fs.String("item", "", "item id")
	site := fs.String("site", "", "job site id")
	qty := fs.Int("qty", 0, "units used")
	notes := fs.String("notes", "", "notes")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, "item", "site"); err != nil {
		return err
	}
	u, err := c.coord.UseItem(ctx, *item, *site, *qty, *notes)
	if err != nil {
		return err
	}
	c.printJSON(u)
	return nil
}

func (c *cli) usage(context.Context, []string) error {
	c.printJSON(c.coord.Snapshot().Usage)
	return nil
}

// findOutput is the printed form of a resolution.
type findOutput struct {
	Outcome    string       `json:"outcome"`
	Exact      bool         `json:"exact,omitempty"`
	Match      *model.Item  `json:"match,omitempty"`
	Candidates []model.Item `json:"candidates,omitempty"`
}

func toFindOutput(r resolver.Result) findOutput {
	out := findOutput{Outcome: r.Outcome.String(), Exact: r.Exact, Candidates: r.Candidates}
	if r.Outcome == resolver.Confident {
		m := r.Match
		out.Match = &m
	}
	return out
}

func (c *cli) find(_ context.Context, args []string) error {
	tok := strings.TrimSpace(strings.Join(args, " "))
	if tok == "" {
		return fmt.Errorf("%w: find: need a token", errUsage)
	}
	c.printJSON(toFindOutput(c.coord.Find(tok)))
	return nil
}

// scan resolves every token read from stdin. With -site, each confident
// match is recorded as used at that job site.
func (c *cli) scan(ctx context.Context, args []string) error {
	fs := c.flags("scan")
	site := fs.String("site", "", "job site id to record usage at")
	qty := fs.Int("qty", 1, "units used per scan")
	if err := parse(fs, args); err != nil {
		return err
	}

	src := scan.NewLineSource(c.in)
	for tok := range scan.Decoded(src.Attempts()) {
		res := c.coord.Find(tok)
		if *site == "" || res.Outcome != resolver.Confident {
			c.printJSON(toFindOutput(res))
			continue
		}
		u, err := c.coord.UseItem(ctx, res.Match.ID, *site, *qty, "scan "+tok)
		if err != nil {
			if errors.Is(err, errs.ErrValidation) {
				fmt.Fprintf(c.errOut, "%s: %v\n", tok, err)
				continue
			}
			return err
		}
		c.printJSON(u)
	}
	return nil
}

func (c *cli) low(context.Context, []string) error {
	c.printJSON(c.coord.LowStock())
	return nil
}

func (c *cli) pending(ctx context.Context, _ []string) error {
	ch, err := c.coord.Pending(ctx)
	if err != nil {
		return err
	}
	c.printJSON(ch)
	return nil
}

func (c *cli) sync(ctx context.Context, _ []string) error {
	if err := c.coord.SyncNow(ctx); err != nil {
		if errors.Is(err, syncer.ErrNoRemote) {
			return fmt.Errorf("%w: sync: no remote configured", errUsage)
		}
		return err
	}
	snap := c.coord.Snapshot()
	fmt.Fprintf(c.out, "synced: %d items, %d job sites, %d usage records\n",
		len(snap.Items), len(snap.JobSites), len(snap.Usage))
	return nil
}

func (c *cli) daemon(ctx context.Context, _ []string) error {
	if !c.coord.RemoteConfigured() {
		return fmt.Errorf("%w: daemon: no remote configured", errUsage)
	}
	s := scheduler.New(c.cfg.SyncSchedule, 0, c.coord, c.log)
	if err := s.Start(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "syncing on", c.cfg.SyncSchedule)
	<-ctx.Done()
	s.Stop()
	return nil
}
