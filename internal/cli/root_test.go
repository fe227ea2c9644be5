package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	cliauth "github.com/techshop-dev/techshop/internal/cli/auth"
	"github.com/techshop-dev/techshop/internal/cli/client"
	"github.com/techshop-dev/techshop/internal/cli/commands"
	"github.com/techshop-dev/techshop/internal/config"
	"github.com/techshop-dev/techshop/internal/server"
)

// cliEnv runs CLI commands against an in-process development backend
type cliEnv struct {
	t       *testing.T
	baseURL string
	store   *cliauth.MemoryStore
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TECHSHOP_SERVER", "")
	t.Setenv("TECHSHOP_EMAIL", "")
	t.Setenv("TECHSHOP_PASSWORD", "")
	t.Chdir(t.TempDir())

	cfg := &config.Config{
		Server:   config.ServerConfig{ListenAddr: ":0", CORSOrigins: config.DefaultCORSOrigins()},
		Database: config.DatabaseConfig{URL: ":memory:", Seed: true},
		Auth:     config.AuthConfig{JWTSecret: "cli-test-secret", TokenTTL: 15 * time.Minute},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	}
	srv, err := server.New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	api := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		api.Close()
		_ = srv.Close()
	})

	return &cliEnv{t: t, baseURL: api.URL + "/api", store: cliauth.NewMemoryStore()}
}

// run executes one CLI invocation and waits for any pending sign-in notice
func (e *cliEnv) run(args ...string) (stdout, stderr string, err error) {
	e.t.Helper()

	var out, errOut bytes.Buffer
	opts := &commands.Options{
		Out:   &out,
		Err:   &errOut,
		In:    strings.NewReader(""),
		Store: e.store,
	}

	root := NewRootCmd(opts)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(e.t, opts.WaitForRedirect(ctx))

	return out.String(), errOut.String(), err
}

// runOK runs a command against the test backend and requires it to succeed
func (e *cliEnv) runOK(args ...string) string {
	e.t.Helper()
	out, errOut, err := e.run(append([]string{"--server", e.baseURL}, args...)...)
	require.NoError(e.t, err, errOut)
	return out
}

func (e *cliEnv) login(email, password string) {
	e.t.Helper()
	out := e.runOK("login", "--email", email, "--password", password)
	require.Contains(e.t, out, "Login successful")
}

func (e *cliEnv) products() []client.Product {
	e.t.Helper()
	var products []client.Product
	require.NoError(e.t, json.Unmarshal([]byte(e.runOK("products", "-o", "json")), &products))
	return products
}

func productID(t *testing.T, products []client.Product, name string) string {
	t.Helper()
	for _, p := range products {
		if p.Name == name {
			return strconv.FormatInt(p.ID, 10)
		}
	}
	t.Fatalf("product %q not found", name)
	return ""
}

func TestInit(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("init", env.baseURL)
	require.NoError(t, err)
	assert.Contains(t, out, "Created ./techshop.json")
	assert.Contains(t, out, "(local)")

	out, _, err = env.run("init", env.baseURL)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	// With one configured backend no --server flag is needed
	out, _, err = env.run("products")
	require.NoError(t, err)
	assert.Contains(t, out, "MacBook Pro 14")
}

func TestNoConfiguration(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("products")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "techshop init")
}

func TestOutputFormats(t *testing.T) {
	env := newCLIEnv(t)

	t.Run("Table", func(t *testing.T) {
		out := env.runOK("products")
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "Galaxy S24")
		assert.Contains(t, out, "$899.00")
	})

	t.Run("JSON", func(t *testing.T) {
		assert.Len(t, env.products(), 9)
	})

	t.Run("YAML", func(t *testing.T) {
		var products []client.Product
		require.NoError(t, yaml.Unmarshal([]byte(env.runOK("products", "-o", "yaml")), &products))
		assert.Len(t, products, 9)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		_, _, err := env.run("--server", env.baseURL, "products", "-o", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})

	t.Run("Filter", func(t *testing.T) {
		var phones []client.Product
		out := env.runOK("products", "--category", "PHONE", "--sort", "price_desc", "-o", "json")
		require.NoError(t, json.Unmarshal([]byte(out), &phones))
		require.Len(t, phones, 2)
		assert.Equal(t, "iPhone 15", phones[0].Name)
	})

	t.Run("Categories", func(t *testing.T) {
		out := env.runOK("categories")
		for _, c := range client.DefaultCategories {
			assert.Contains(t, out, c)
		}
	})

	t.Run("FuzzySearch", func(t *testing.T) {
		out := env.runOK("search", "--mode", "fuzzy", "thinkpda")
		assert.Contains(t, out, "ThinkPad X1 Carbon")
	})
}

func TestSavedOutputFormat(t *testing.T) {
	env := newCLIEnv(t)

	out := env.runOK("output", "json")
	assert.Contains(t, out, "set to json")

	// No -o flag: the saved preference applies
	var products []client.Product
	require.NoError(t, json.Unmarshal([]byte(env.runOK("products")), &products))
	assert.Len(t, products, 9)

	// The flag still wins
	assert.Contains(t, env.runOK("products", "-o", "table"), "NAME")
}

func TestProtectedCommandWithoutSession(t *testing.T) {
	env := newCLIEnv(t)

	_, errOut, err := env.run("--server", env.baseURL, "orders")
	require.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Contains(t, errOut, "Run 'techshop login' to sign in again")
}

func TestLoginFailure(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("--server", env.baseURL, "login", "--email", server.SeedUserEmail, "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestShoppingFlow(t *testing.T) {
	env := newCLIEnv(t)
	env.login(server.SeedUserEmail, server.SeedUserPassword)
	iphone := productID(t, env.products(), "iPhone 15")

	t.Run("Whoami", func(t *testing.T) {
		out := env.runOK("whoami")
		assert.Contains(t, out, server.SeedUserEmail)
		assert.Contains(t, out, "PREMIUM")
	})

	t.Run("EmptyCart", func(t *testing.T) {
		assert.Contains(t, env.runOK("cart"), "Your cart is empty.")
	})

	t.Run("Add", func(t *testing.T) {
		out := env.runOK("cart", "add", iphone, "-q", "2")
		assert.Contains(t, out, "Added 2 × iPhone 15")

		var cart client.Cart
		require.NoError(t, json.Unmarshal([]byte(env.runOK("cart", "-o", "json")), &cart))
		require.Len(t, cart.CartItems, 1)
		assert.Equal(t, 2, cart.CartItems[0].Quantity)
	})

	t.Run("DiscountedPrices", func(t *testing.T) {
		var discounted []client.ProductDiscount
		require.NoError(t, json.Unmarshal([]byte(env.runOK("products", "--discounted", "-o", "json")), &discounted))
		require.NotEmpty(t, discounted)
		for _, p := range discounted {
			assert.InDelta(t, p.OriginalPrice*0.9, p.DiscountedPrice, 0.01)
		}
	})

	t.Run("CheckoutNeedsAddress", func(t *testing.T) {
		_, _, err := env.run("--server", env.baseURL, "cart", "checkout", "--street", "1 Main St")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid request")
	})

	t.Run("Checkout", func(t *testing.T) {
		out := env.runOK("cart", "checkout",
			"--street", "1 Main St", "--city", "Lisbon", "--postal-code", "1000-001", "--country", "PT")
		assert.Contains(t, out, "placed")
		assert.Contains(t, out, "PENDING")

		assert.Contains(t, env.runOK("cart"), "Your cart is empty.")
	})

	t.Run("Orders", func(t *testing.T) {
		var orders []client.Order
		require.NoError(t, json.Unmarshal([]byte(env.runOK("orders", "-o", "json")), &orders))
		require.Len(t, orders, 1)
		assert.Equal(t, client.OrderPending, orders[0].OrderStatus)
		require.NotNil(t, orders[0].Address)
		assert.Equal(t, "Lisbon", orders[0].Address.City)

		out := env.runOK("orders", "show", strconv.FormatInt(orders[0].ID, 10))
		assert.Contains(t, out, "iPhone 15")
	})

	t.Run("AdminCommandsRefusedLocally", func(t *testing.T) {
		_, _, err := env.run("--server", env.baseURL, "admin", "users", "ls")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin access required")

		// The session survives because no request reached the backend
		assert.Contains(t, env.runOK("whoami"), server.SeedUserEmail)
	})

	t.Run("Logout", func(t *testing.T) {
		assert.Contains(t, env.runOK("logout"), "Logged out")

		_, errOut, err := env.run("--server", env.baseURL, "cart")
		require.ErrorIs(t, err, client.ErrUnauthenticated)
		assert.Contains(t, errOut, "techshop login")
	})
}

func TestAdminCommands(t *testing.T) {
	env := newCLIEnv(t)
	env.login(server.SeedAdminEmail, server.SeedAdminPassword)
	hue := productID(t, env.products(), "Philips Hue Starter Kit")

	t.Run("Users", func(t *testing.T) {
		out := env.runOK("admin", "users", "ls")
		assert.Contains(t, out, server.SeedAdminEmail)
		assert.Contains(t, out, server.SeedUserEmail)
	})

	t.Run("CreateProduct", func(t *testing.T) {
		out := env.runOK("admin", "products", "create",
			"--name", "Pixel 9", "--price", "799", "--stock", "4", "--category", "phone")
		assert.Contains(t, out, "Created product")
		assert.Len(t, env.products(), 10)
	})

	t.Run("UpdateProductKeepsUnsetFields", func(t *testing.T) {
		out := env.runOK("admin", "products", "update", hue, "--price", "159.99")
		assert.Contains(t, out, "Philips Hue Starter Kit")

		var product client.Product
		require.NoError(t, json.Unmarshal([]byte(env.runOK("products", hue, "-o", "json")), &product))
		assert.Equal(t, 159.99, product.Price)
		assert.Equal(t, client.CategorySmartDevices, product.Category)
	})

	t.Run("DeleteNeedsConfirmation", func(t *testing.T) {
		_, _, err := env.run("--server", env.baseURL, "admin", "products", "rm", hue)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--yes")
	})

	t.Run("Delete", func(t *testing.T) {
		out := env.runOK("admin", "products", "rm", hue, "--yes")
		assert.Contains(t, out, "Deleted product "+hue)

		_, _, err := env.run("--server", env.baseURL, "products", hue)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run("version")
	require.NoError(t, err)
	assert.Equal(t, "techshop version dev\n", out)
}
