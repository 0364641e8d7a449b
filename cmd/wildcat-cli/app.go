package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/wildcat/internal/client"
	"github.com/erazemk/wildcat/internal/market"
	"github.com/erazemk/wildcat/internal/model"
)

// app is one interactive session. Commands read extra input from in and
// print to out.
type app struct {
	client   *client.Client
	sessions *market.SessionProvider
	feed     *market.Feed
	gate     *market.Gate
	editor   *market.Editor

	in  *bufio.Scanner
	out io.Writer

	mu          sync.Mutex
	inventory   *market.Inventory
	shown       []model.Item // last list printed, for numeric references
	unsubscribe func()
}

func newApp(c *client.Client, in io.Reader, out io.Writer) *app {
	a := &app{
		client: c,
		in:     bufio.NewScanner(in),
		out:    out,
	}
	a.sessions = market.NewSessionProvider(c, c)
	a.feed = market.NewFeed(c)
	a.gate = market.NewGate(a.sessions, a.showItem)
	a.editor = market.NewEditor(a.sessions, c, c, a.feed)
	a.unsubscribe = a.sessions.Subscribe(a.sessionChanged)
	return a
}

// Start resumes a stored session and fetches the feed.
func (a *app) Start(ctx context.Context) error {
	if err := a.sessions.Start(ctx); err != nil {
		return fmt.Errorf("resuming session: %w", err)
	}
	if err := a.feed.Refresh(ctx); err != nil {
		slog.Warn("failed to load feed", "error", err)
	}
	switch a.sessions.State() {
	case market.StateComplete:
		fmt.Fprintf(a.out, "Welcome back, %s.\n", a.firstName())
	case market.StateIncompleteProfile:
		fmt.Fprintln(a.out, "Finish setting up your profile with: onboard <full name>")
	}
	return nil
}

func (a *app) Close() {
	a.unsubscribe()
	a.gate.Close()
	a.sessions.Close()
}

// sessionChanged keeps the inventory bound to the signed-in seller.
func (a *app) sessionChanged(state market.State, s *model.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state != market.StateComplete {
		a.inventory = nil
		return
	}
	a.inventory = market.NewInventory(a.client, s.UserID)
	slog.Info("session changed", "state", state, "user", s.UserID)
}

// Loop reads commands until EOF, "quit" or ctx is done.
func (a *app) Loop(ctx context.Context) {
	fmt.Fprintln(a.out, `Wildcat Market. Type "help" for commands.`)
	for ctx.Err() == nil {
		line, ok := a.prompt("> ")
		if !ok {
			return
		}
		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		if cmd == "" {
			continue
		}
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := a.exec(ctx, cmd, strings.TrimSpace(rest)); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
}

func (a *app) exec(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "help":
		a.help()
		return nil
	case "feed":
		return a.cmdFeed(ctx)
	case "filter":
		return a.cmdFilter(arg)
	case "view":
		return a.cmdView(arg)
	case "login":
		return a.cmdLogin(ctx, arg)
	case "onboard":
		return a.cmdOnboard(ctx, arg)
	case "cancel":
		a.gate.Cancel()
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	case "sell":
		return a.cmdSell(ctx)
	case "mine":
		return a.cmdMine(ctx)
	case "edit":
		return a.cmdEdit(ctx, arg)
	case "sold":
		return a.cmdSold(ctx, arg)
	case "delete":
		return a.cmdDelete(ctx, arg)
	case "logout":
		return a.cmdLogout(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) help() {
	fmt.Fprint(a.out, `Commands:
  feed               refresh and list active listings
  filter <category>  show one category ("All" for everything)
  view <n>           show listing n from the last list
  login <email>      log in with a code sent to your college email
  onboard <name>     set your full name after the first login
  cancel             forget the listing you asked to view before logging in
  sell               create a listing
  mine               list your listings
  edit <n>           change the title and price of your listing n
  sold <n>           mark your listing n as sold
  delete <n>         remove your listing n
  logout             end the session
  quit               exit
`)
}

func (a *app) cmdFeed(ctx context.Context) error {
	if err := a.feed.Refresh(ctx); err != nil {
		return err
	}
	a.printList(a.feed.Items())
	return nil
}

func (a *app) cmdFilter(category string) error {
	if category == "" {
		fmt.Fprintf(a.out, "Categories: %s, %s\n", market.CategoryAll, strings.Join(model.Categories, ", "))
		return nil
	}
	a.feed.SetCategory(category)
	if a.feed.Category() != category && !strings.EqualFold(category, market.CategoryAll) {
		fmt.Fprintf(a.out, "Unknown category %q, showing everything.\n", category)
	}
	a.printList(a.feed.Items())
	return nil
}

func (a *app) cmdView(arg string) error {
	item, err := a.pick(arg)
	if err != nil {
		return err
	}
	if !a.gate.Open(item) {
		switch a.sessions.State() {
		case market.StateIncompleteProfile:
			fmt.Fprintln(a.out, "Finish your profile first: onboard <full name>")
		default:
			fmt.Fprintln(a.out, "Log in to see seller details: login <you>@davidson.edu")
		}
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context, email string) error {
	if a.sessions.State() != market.StateAnonymous {
		return errors.New("already logged in; logout first")
	}
	if email == "" {
		var ok bool
		if email, ok = a.prompt("Email: "); !ok {
			return nil
		}
	}
	if err := a.sessions.RequestCode(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "We sent a code to %s.\n", model.NormalizeEmail(email))

	code, ok := a.prompt("Code: ")
	if !ok {
		return nil
	}
	if err := a.sessions.VerifyCode(ctx, email, code); err != nil {
		return err
	}
	if a.sessions.State() == market.StateIncompleteProfile {
		fmt.Fprintln(a.out, "Welcome! Tell us your name: onboard <full name>")
		return nil
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", a.firstName())
	return nil
}

func (a *app) cmdOnboard(ctx context.Context, name string) error {
	if a.sessions.State() != market.StateIncompleteProfile {
		return errors.New("nothing to set up")
	}
	if err := a.sessions.CompleteOnboarding(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thanks, %s.\n", a.firstName())
	return nil
}

func (a *app) cmdSell(ctx context.Context) error {
	if a.sessions.State() != market.StateComplete {
		return market.ErrNotAuthenticated
	}
	defer a.editor.Reset()

	fields := []struct {
		label string
		set   func(*model.ListingInput, string)
	}{
		{"Title", func(in *model.ListingInput, v string) { in.Title = v }},
		{"Price (0 for free)", func(in *model.ListingInput, v string) { in.Price = v }},
		{"Description", func(in *model.ListingInput, v string) { in.Description = v }},
		{"Category [" + strings.Join(model.Categories, ", ") + "]", func(in *model.ListingInput, v string) {
			if v != "" {
				in.Category = v
			}
		}},
		{"Condition [" + strings.Join(model.Conditions, ", ") + "]", func(in *model.ListingInput, v string) {
			if v != "" {
				in.Condition = v
			}
		}},
		{"Phone (optional)", func(in *model.ListingInput, v string) { in.Phone = v }},
	}
	for _, f := range fields {
		v, ok := a.prompt(f.label + ": ")
		if !ok {
			return nil
		}
		a.editor.Edit(func(in *model.ListingInput) { f.set(in, strings.TrimSpace(v)) })
	}
	if a.editor.Draft().Phone != "" {
		v, ok := a.prompt("Show phone on the listing? [y/N]: ")
		if !ok {
			return nil
		}
		show := strings.EqualFold(strings.TrimSpace(v), "y")
		a.editor.Edit(func(in *model.ListingInput) { in.ShowPhone = show })
	}

	paths, ok := a.prompt(fmt.Sprintf("Photo files (up to %d, space separated): ", model.MaxImages))
	if !ok {
		return nil
	}
	if err := a.addPhotos(strings.Fields(paths)); err != nil {
		return err
	}

	item, err := a.editor.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listed %q for %s.\n", item.Title, priceLabel(item.Price))
	return nil
}

func (a *app) addPhotos(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	images := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}
		images = append(images, data)
	}
	if _, err := a.editor.AddImages(images); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Processing %d photo(s)...\n", len(images))
	return a.editor.Wait()
}

func (a *app) cmdMine(ctx context.Context) error {
	inv, err := a.currentInventory()
	if err != nil {
		return err
	}
	if err := inv.Load(ctx); err != nil {
		return err
	}
	items := inv.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "You have no listings yet.")
	}
	a.printList(items)
	return nil
}

func (a *app) cmdEdit(ctx context.Context, arg string) error {
	inv, item, err := a.pickOwn(arg)
	if err != nil {
		return err
	}
	if err := inv.BeginEdit(item.ID); err != nil {
		return err
	}

	title, ok := a.prompt(fmt.Sprintf("Title [%s]: ", item.Title))
	if !ok {
		inv.CancelEdit()
		return nil
	}
	if strings.TrimSpace(title) == "" {
		title = item.Title
	}
	price, ok := a.prompt(fmt.Sprintf("Price [%s]: ", item.Price.String()))
	if !ok {
		inv.CancelEdit()
		return nil
	}
	if strings.TrimSpace(price) == "" {
		price = item.Price.String()
	}

	if err := inv.SaveEdit(ctx, title, price); err != nil {
		inv.CancelEdit()
		return err
	}
	fmt.Fprintln(a.out, "Saved.")
	return nil
}

func (a *app) cmdSold(ctx context.Context, arg string) error {
	inv, item, err := a.pickOwn(arg)
	if err != nil {
		return err
	}
	if err := inv.MarkSold(ctx, item.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Marked %q as sold.\n", item.Title)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, arg string) error {
	inv, item, err := a.pickOwn(arg)
	if err != nil {
		return err
	}
	answer, ok := a.prompt(fmt.Sprintf("Delete %q? [y/N]: ", item.Title))
	if !ok || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return nil
	}
	if err := inv.Delete(ctx, item.ID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if a.sessions.State() == market.StateAnonymous {
		return errors.New("not logged in")
	}
	err := a.sessions.SignOut(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	if errors.Is(err, client.ErrUnauthorized) {
		return nil
	}
	return err
}

// showItem prints a listing's detail view.
func (a *app) showItem(item model.Item) {
	fmt.Fprintf(a.out, "\n%s  %s\n", item.Title, priceLabel(item.Price))
	fmt.Fprintf(a.out, "%s · %s · posted %s\n", item.Category, item.Condition, item.CreatedAt.Local().Format(time.DateOnly))
	if item.Status == model.ItemStatusSold {
		fmt.Fprintln(a.out, "SOLD")
	}
	fmt.Fprintf(a.out, "\n%s\n\n", item.Description)
	fmt.Fprintf(a.out, "Seller: %s\n", item.SellerFirstName("Davidson Student"))
	if item.DisplayPhone != nil {
		fmt.Fprintf(a.out, "Phone:  %s\n", *item.DisplayPhone)
	}
	for i, url := range item.Images {
		fmt.Fprintf(a.out, "Photo %d: %s\n", i+1, url)
	}
	fmt.Fprintln(a.out)
}

func (a *app) printList(items []model.Item) {
	a.mu.Lock()
	a.shown = items
	a.mu.Unlock()

	for i, it := range items {
		badge := ""
		if it.Status == model.ItemStatusSold {
			badge = "  [sold]"
		}
		fmt.Fprintf(a.out, "%3d. %-40s %8s  %s%s\n", i+1, it.Title, priceLabel(it.Price), it.Category, badge)
	}
}

// pick resolves a 1-based index into the last printed list.
func (a *app) pick(arg string) (model.Item, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Item{}, fmt.Errorf("expected a listing number, got %q", arg)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 1 || n > len(a.shown) {
		return model.Item{}, fmt.Errorf("no listing %d in the last list", n)
	}
	return a.shown[n-1], nil
}

func (a *app) pickOwn(arg string) (*market.Inventory, model.Item, error) {
	inv, err := a.currentInventory()
	if err != nil {
		return nil, model.Item{}, err
	}
	item, err := a.pick(arg)
	if err != nil {
		return nil, model.Item{}, err
	}
	if s := a.sessions.Session(); s == nil || item.SellerID != s.UserID {
		return nil, model.Item{}, errors.New(`that is not your listing; run "mine" first`)
	}
	return inv, item, nil
}

func (a *app) currentInventory() (*market.Inventory, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inventory == nil {
		return nil, market.ErrNotAuthenticated
	}
	return a.inventory, nil
}

func (a *app) firstName() string {
	s := a.sessions.Session()
	if s == nil || s.Profile == nil || s.Profile.FullName == nil {
		return "Student"
	}
	return model.FirstName(*s.Profile.FullName, "Student")
}

// prompt prints label and reads one line. ok is false at end of input.
func (a *app) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}

func priceLabel(p decimal.Decimal) string {
	if p.IsZero() {
		return "Free"
	}
	if p.IsInteger() {
		return "$" + p.String()
	}
	return "$" + p.StringFixed(2)
}
