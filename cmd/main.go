package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"weexgateway/cmd/ordertest"
	"weexgateway/cmd/smoke"
	"weexgateway/src/catalog"
	"weexgateway/src/connectors"
	"weexgateway/src/database"
	"weexgateway/src/logging"
	"weexgateway/src/proxy"
	"weexgateway/src/repository"
	"weexgateway/src/security"
	"weexgateway/src/server"
)

var Version string

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env")
	}
	logging.Setup(logging.GetConfig())

	app := cli.NewApp()
	app.Name = "weexgateway"
	app.Usage = "WEEX futures API gateway and test tools"
	app.Version = Version

	app.Commands = []cli.Command{
		proxyCMD,
		docsCMD,
		smokeCMD,
		orderCMD,
		endpointsCMD,
		hashTokenCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	proxyCMD = cli.Command{
		Name:      "proxy",
		Usage:     "run the signing CORS proxy and docs server",
		Action:    proxyAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "port", Usage: "listen port (default $PORT or 8888)"},
		},
		Description: `Serve DOCS_DIR and forward /capi/* to WEEX, signing requests that carry credentials`,
	}
	docsCMD = cli.Command{
		Name:      "docs",
		Usage:     "run the docs-only server",
		Action:    docsAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "port", Usage: "listen port (default $DOCS_PORT or 8080)"},
		},
		Description: `Serve DOCS_DIR with CORS headers, without the API proxy`,
	}
	smokeCMD = cli.Command{
		Name:        "smoke",
		Usage:       "call every read-only endpoint once",
		Action:      smokeAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Public market endpoints, then signed account endpoints when WEEX credentials are set`,
	}
	orderCMD = cli.Command{
		Name:      "order",
		Usage:     "place a small market long, or close positions",
		Action:    orderAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "close", Usage: "close positions on ORDER_SYMBOL instead of opening one"},
		},
		Description: `Places a market open long sized to ORDER_TARGET_NOTIONAL USDT`,
	}
	endpointsCMD = cli.Command{
		Name:        "endpoints",
		Usage:       "list documented WEEX endpoints",
		Action:      endpointsAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Print the endpoint catalog`,
	}
	hashTokenCMD = cli.Command{
		Name:        "hash-token",
		Usage:       "print the PROXY_TOKEN_HASH for a token",
		Action:      hashTokenAction,
		ArgsUsage:   "<token>",
		Flags:       []cli.Flag{},
		Description: `bcrypt hash a proxy access token`,
	}
)

func portOr(c *cli.Context, fallback string) string {
	if p := c.String("port"); p != "" {
		return p
	}
	return fallback
}

func proxyAction(c *cli.Context) error {
	logrus.Info("Starting proxy CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	h, err := server.BuildProxyHandler()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	server.StartServer(portOr(c, server.GetConfig().Port), h)
	return nil
}

func docsAction(c *cli.Context) error {
	logrus.Info("Starting docs CMD")

	docsDir := proxy.GetConfig().DocsDir
	logrus.WithField("docs", docsDir).Info("Serving documentation")
	server.StartServer(portOr(c, server.GetConfig().DocsPort), server.NewDocsRouter(docsDir))
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func smokeAction(_ *cli.Context) error {
	logrus.Info("Starting smoke CMD")

	ctx, stop := signalContext()
	defer stop()

	s := &smoke.Smoke{
		Client: connectors.NewClientFromConfig(connectors.GetConfig()),
		Out:    os.Stdout,
		Symbol: connectors.NormalizeSymbol(smoke.GetConfig().Symbol),
	}
	return s.Start(ctx)
}

func orderAction(c *cli.Context) error {
	logrus.Info("Starting order CMD")

	ctx, stop := signalContext()
	defer stop()

	client := connectors.NewClientFromConfig(connectors.GetConfig())
	if !client.HasCredentials() {
		return connectors.ErrMissingCredentials
	}

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	cfg := *ordertest.GetConfig()
	cfg.Symbol = connectors.NormalizeSymbol(cfg.Symbol)

	o := &ordertest.OrderTest{
		Client:     client,
		Orders:     repository.NewOrderLogRepository(),
		Exceptions: repository.NewExceptionRepository(),
		Out:        os.Stdout,
		Config:     cfg,
	}
	if err := o.Run(ctx, c.Bool("close")); err != nil {
		logrus.WithError(err).Error("Order CMD failed")
		return err
	}
	return nil
}

func endpointsAction(_ *cli.Context) error {
	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GROUP\tMETHOD\tPATH\tSIGNED\tSUMMARY")
	for _, ep := range cat.All() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", ep.Group, ep.Method, ep.Path, ep.Signed, ep.Summary)
	}
	return w.Flush()
}

func hashTokenAction(c *cli.Context) error {
	hash, err := security.HashToken(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
