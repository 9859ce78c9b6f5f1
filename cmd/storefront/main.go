package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/currency"
	"github.com/example/storefront/internal/delivery"
	"github.com/example/storefront/internal/favorites"
	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/selection"
	"github.com/example/storefront/internal/session"
	"github.com/example/storefront/internal/storage"
)

const usage = `storefront - headless storefront client

Usage:
  storefront login <email> <password>
  storefront register <name> <email> <password>
  storefront logout
  storefront cart
  storefront add <product-id> [quantity]
  storefront qty <product-id> <quantity>
  storefront remove <product-id>...
  storefront select <product-id>
  storefront select-all
  storefront pickup <point-id>
  storefront courier <lat> <lng> <address>
  storefront speed <regular|fast>
  storefront currency <code>
  storefront checkout
  storefront orders
  storefront favorites
  storefront favorite <product-id>
  storefront unfavorite <product-id>
  storefront reviews <product-id>
  storefront review <product-id> <rating> <text> [media-file...]

Environment:
  STOREFRONT_API_URL        API base URL (default http://localhost:8080)
  STOREFRONT_STATE_FILE     state file path (default per-user config dir)
  STOREFRONT_REDIS_ADDR     use Redis state storage instead of a file
  STOREFRONT_REDIS_PASSWORD Redis password
  STOREFRONT_PROFILE        Redis key namespace (default "default")
`

// app wires the storefront state layer together for one CLI invocation.
type app struct {
	persist    storage.Store
	sink       notify.Sink
	session    *session.Session
	client     *api.Client
	cart       *cart.Store
	selection  *selection.Tracker
	estimator  *delivery.Estimator
	reconciler *cart.Reconciler
	converter  *currency.Converter
	checkout   *checkout.Orchestrator
	favorites  *favorites.Store
}

func newApp(ctx context.Context) (*app, error) {
	baseURL := getEnv("STOREFRONT_API_URL", "http://localhost:8080")

	var persist storage.Store
	if addr := os.Getenv("STOREFRONT_REDIS_ADDR"); addr != "" {
		rs := storage.NewRedisStore(addr, os.Getenv("STOREFRONT_REDIS_PASSWORD"),
			getEnv("STOREFRONT_PROFILE", "default"))
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		persist = rs
	} else {
		fs, err := storage.NewFileStore(getEnv("STOREFRONT_STATE_FILE", storage.DefaultStatePath()))
		if err != nil {
			return nil, err
		}
		persist = fs
	}

	a := &app{persist: persist, sink: notify.NewLogSink()}
	a.session = session.New(persist)
	a.client = api.NewClient(baseURL,
		api.WithTokenSource(a.session.Token),
		api.WithUnauthorizedHook(func() {
			a.sink.Error("Session expired, please log in again")
			a.session.Teardown()
		}),
	)

	a.cart = cart.NewStore(persist, a.sink)
	a.selection = selection.NewTracker(persist)
	a.estimator = delivery.NewEstimator(persist, a.client)
	a.reconciler = cart.NewReconciler(a.cart, a.session, a.client, a.sink)
	a.converter = currency.NewConverter(persist, a.client)
	a.checkout = checkout.NewOrchestrator(a.cart, a.selection, a.estimator, a.converter, a.client, a.sink)
	a.favorites = favorites.NewStore(a.session, a.client, a.sink)

	// Cart mutations drive selection pruning and estimate recomputes.
	a.cart.OnChange(func(lines []model.CartLine) {
		ids := make([]int, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		a.selection.Prune(ids)
	})
	a.cart.OnChange(a.estimator.OnCartChanged)

	// Seed the estimator with the restored cart: change listeners only see
	// mutations, and a fresh process may run a read-only command.
	a.estimator.OnCartChanged(a.cart.Items())

	// Logout and expiry drop everything the session owns.
	a.session.OnTeardown(func() {
		a.cart.Clear()
		a.selection.Clear()
		a.favorites.Reset()
	})

	// Validate a persisted token and finish the one-shot merge for it.
	if a.session.HasToken() {
		if user, err := a.client.Profile(ctx); err == nil {
			a.session.SetUser(*user)
			if err := a.reconciler.MergeOnLogin(ctx); err != nil {
				log.Printf("[App] Cart merge failed: %v", err)
			}
		}
	}

	if err := a.converter.Refresh(ctx); err != nil {
		log.Printf("[App] Currency refresh failed: %v", err)
	}
	return a, nil
}

// close waits for background work before the process exits.
func (a *app) close() {
	a.reconciler.Flush()
	a.estimator.Flush()
	if rs, ok := a.persist.(*storage.RedisStore); ok {
		_ = rs.Close()
	}
}

func main() {
	// A .env next to the binary is optional.
	_ = godotenv.Load()

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		log.Fatalf("[App] %v", err)
	}
	defer a.close()

	if err := a.run(ctx, args[0], args[1:]); err != nil {
		log.Fatalf("[App] %s: %v", args[0], err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		a.session.Teardown()
		fmt.Println("Logged out")
		return nil
	case "cart":
		return a.printCart()
	case "add":
		return a.add(ctx, args)
	case "qty":
		return a.setQuantity(args)
	case "remove":
		return a.remove(args)
	case "select":
		return a.toggleSelect(args)
	case "select-all":
		return a.selectAll()
	case "pickup":
		return a.pickup(ctx, args)
	case "courier":
		return a.courier(args)
	case "speed":
		return a.speed(args)
	case "currency":
		return a.currencyCmd(args)
	case "checkout":
		return a.checkout.Checkout(ctx)
	case "orders":
		return a.orders(ctx)
	case "favorites":
		return a.listFavorites(ctx)
	case "favorite":
		return a.favoriteCmd(ctx, args, a.favorites.Add)
	case "unfavorite":
		return a.favoriteCmd(ctx, args, a.favorites.Remove)
	case "reviews":
		return a.listReviews(ctx, args)
	case "review":
		return a.addReview(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	resp, err := a.client.Login(ctx, api.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	if err := a.session.SetAuth(resp.Token, resp.User); err != nil {
		return err
	}
	if err := a.reconciler.MergeOnLogin(ctx); err != nil {
		log.Printf("[App] Cart merge failed: %v", err)
	}
	fmt.Printf("Logged in as %s\n", resp.User.Name)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: register <name> <email> <password>")
	}
	resp, err := a.client.Register(ctx, api.Registration{Name: args[0], Email: args[1], Password: args[2]})
	if err != nil {
		return err
	}
	if err := a.session.SetAuth(resp.Token, resp.User); err != nil {
		return err
	}
	if err := a.reconciler.MergeOnLogin(ctx); err != nil {
		log.Printf("[App] Cart merge failed: %v", err)
	}
	fmt.Printf("Registered as %s\n", resp.User.Name)
	return nil
}

func (a *app) printCart() error {
	// Estimates resolve in the background; wait so they show up in the listing.
	a.estimator.Flush()

	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Println("Cart is empty")
		return nil
	}

	code := a.converter.Active()
	estimates := a.estimator.Estimates()
	for _, l := range items {
		mark := " "
		if a.selection.IsSelected(l.ProductID) {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] #%d %s  x%d  %d %s",
			mark, l.ProductID, l.Title, l.Quantity,
			a.converter.Convert(l.EffectivePrice()), code)
		if days, ok := estimates[l.ProductID]; ok {
			line += fmt.Sprintf("  (delivery: %d days)", days)
		}
		fmt.Println(line)
	}
	fmt.Printf("Selected total: %d %s (delivery included)\n", a.checkout.Total(), code)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: add <product-id> [quantity]")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}
	quantity := 1
	if len(args) == 2 {
		if quantity, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("bad quantity %q", args[1])
		}
	}

	product, err := a.client.Product(ctx, id)
	if err != nil {
		return err
	}
	added, err := a.cart.Add(product.Line(quantity))
	if err != nil {
		return err
	}
	fmt.Printf("Added %s x%d\n", added.Title, added.Quantity)
	return nil
}

func (a *app) setQuantity(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: qty <product-id> <quantity>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad quantity %q", args[1])
	}
	return a.cart.SetQuantity(id, quantity)
}

func (a *app) remove(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: remove <product-id>...")
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad product id %q", arg)
		}
		ids = append(ids, id)
	}
	a.cart.RemoveMany(ids)
	return nil
}

func (a *app) toggleSelect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: select <product-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}
	if _, ok := a.cart.Get(id); !ok {
		return fmt.Errorf("product %d is not in the cart", id)
	}
	a.selection.Toggle(id)
	return nil
}

func (a *app) selectAll() error {
	items := a.cart.Items()
	ids := make([]int, len(items))
	for i, l := range items {
		ids[i] = l.ProductID
	}
	a.selection.SelectAll(ids)
	return nil
}

func (a *app) pickup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pickup <point-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad point id %q", args[0])
	}

	points, err := a.client.DeliveryPoints(ctx)
	if err != nil {
		return err
	}
	for _, p := range points {
		if p.ID == id {
			a.estimator.SetTarget(model.Location{
				ID:          p.ID,
				City:        p.City,
				Address:     p.Address,
				Coordinates: model.Coordinates{Lat: p.Lat, Lng: p.Lng},
				ZoneID:      p.ZoneID,
				Mode:        model.DeliveryModePickup,
			})
			fmt.Printf("Pickup point: %s, %s\n", p.City, p.Address)
			return nil
		}
	}
	return fmt.Errorf("pickup point %d not found", id)
}

func (a *app) courier(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: courier <lat> <lng> <address>")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad latitude %q", args[0])
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad longitude %q", args[1])
	}

	coords := model.Coordinates{Lat: lat, Lng: lng}
	if !coords.Valid() {
		return fmt.Errorf("coordinates out of range")
	}
	a.estimator.SetTarget(model.Location{
		Address:     args[2],
		Coordinates: coords,
		Mode:        model.DeliveryModeCourier,
		Speed:       a.estimator.Speed(),
	})
	return nil
}

func (a *app) speed(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: speed <regular|fast>")
	}
	switch model.DeliverySpeed(args[0]) {
	case model.DeliverySpeedRegular, model.DeliverySpeedFast:
		a.estimator.SetSpeed(model.DeliverySpeed(args[0]))
		return nil
	default:
		return fmt.Errorf("unknown speed %q", args[0])
	}
}

func (a *app) currencyCmd(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: currency <code>")
	}
	a.converter.SetActive(args[0])
	return nil
}

func (a *app) orders(ctx context.Context) error {
	orders, err := a.client.UserOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("#%d  %s  %s  %.0f %s\n",
			o.OrderNumber, o.Date.Format("2006-01-02"), o.Status, o.Total, o.Currency)
	}
	return nil
}

func (a *app) listFavorites(ctx context.Context) error {
	if err := a.favorites.Refresh(ctx, 50, 0); err != nil {
		return err
	}
	items := a.favorites.Items()
	if len(items) == 0 {
		fmt.Println("No favorites yet")
		return nil
	}
	code := a.converter.Active()
	for _, f := range items {
		fmt.Printf("#%d %s  %d %s\n", f.ID, f.Title, a.converter.Convert(f.Price), code)
	}
	return nil
}

func (a *app) favoriteCmd(ctx context.Context, args []string, op func(context.Context, int) error) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: favorite|unfavorite <product-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}
	return op(ctx, id)
}

func (a *app) listReviews(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reviews <product-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}

	reviews, err := a.client.Reviews(ctx, id)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		fmt.Println("No reviews yet")
		return nil
	}
	for _, r := range reviews {
		fmt.Printf("%d/5  %s  %s\n", r.Rating, r.UserName, r.Text)
	}
	return nil
}

func (a *app) addReview(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: review <product-id> <rating> <text> [media-file...]")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad product id %q", args[0])
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil || rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be 1-5")
	}

	draft := api.ReviewDraft{Text: args[2], Rating: rating}
	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, path := range args[3:] {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		files = append(files, f)
		draft.Media = append(draft.Media, api.ReviewMedia{
			Filename: filepath.Base(path),
			Content:  f,
		})
	}

	if _, err := a.client.AddReview(ctx, id, draft); err != nil {
		return err
	}
	a.sink.Success("Review added successfully")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
