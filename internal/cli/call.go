package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/relay/internal/client/api"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

var (
	callBody string
	callOnce bool
)

var callCmd = &cobra.Command{
	Use:   "call METHOD PATH",
	Short: "Call the backend API with retries",
	Long: `Call sends METHOD PATH to the configured API. GET, PUT, DELETE and POST are
retried with the API retry policy. Use --once for POSTs that create content.`,
	Args: cobra.ExactArgs(2),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callBody, "body", "", "JSON request body")
	callCmd.Flags().BoolVar(&callOnce, "once", false, "send exactly once without retries")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	method, path := strings.ToUpper(args[0]), args[1]

	var body any
	if callBody != "" {
		if !json.Valid([]byte(callBody)) {
			return fmt.Errorf("--body is not valid JSON")
		}
		body = json.RawMessage(callBody)
	}

	client, cleanup, err := newAPIClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup.Close()

	var out json.RawMessage
	switch {
	case callOnce && method == "POST":
		err = client.PostNoRetry(ctx, path, body, &out)
	case callOnce:
		return fmt.Errorf("--once is only supported for POST")
	case method == "GET":
		err = client.Get(ctx, path, &out)
	case method == "PUT":
		err = client.Put(ctx, path, body, &out)
	case method == "DELETE":
		err = client.Delete(ctx, path, &out)
	case method == "POST":
		err = client.Post(ctx, path, body, &out)
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
	if err != nil {
		slog.Error("Request failed", "method", method, "path", path, "error", err)
		fmt.Fprintln(os.Stderr, api.UserMessage(err))
		return err
	}

	if len(out) > 0 {
		fmt.Println(string(out))
	}
	return nil
}

func newAPIClient(ctx context.Context) (*api.Client, closers, error) {
	if cfg.API.BaseURL == "" {
		return nil, nil, fmt.Errorf("api.base_url is not set")
	}

	store, cleanup, err := buildCredentials(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var opts []provider.HTTPOption
	if cfg.API.RateLimit > 0 {
		opts = append(opts, provider.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst))
	}
	transport := provider.NewHTTPTransport(cfg.API.BaseURL, opts...)
	cleanup = append(cleanup, func() { _ = transport.Close() })

	executor := retry.NewExecutor(transport,
		retry.WithCredentials(store),
		retry.WithLogger(slog.Default().With("component", "api")),
		retry.WithDefaultTimeout(cfg.API.Timeout),
	)

	clientOpts := []api.Option{
		api.WithPolicy(cfg.API.Retry),
		api.WithTimeout(cfg.API.Timeout),
	}
	if inv, ok := store.(api.Invalidator); ok {
		clientOpts = append(clientOpts, api.WithInvalidator(inv))
	}
	client := api.New(executor, clientOpts...)
	return client, cleanup, nil
}
