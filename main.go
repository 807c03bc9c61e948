package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/czerwonk/nodeaddr_exporter/config"
	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/model"
	log "github.com/sirupsen/logrus"
)

const version string = "0.1.0"

var (
	showVersion   = kingpin.Flag("version", "Print version information").Default().Bool()
	listenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics and web interface").Default(":9428").String()
	metricsPath   = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics").Default("/metrics").String()
	configFile    = kingpin.Flag("config.path", "Path to config file").Default("").String()
	configWatch   = kingpin.Flag("config.watch", "Reload nodes when the config file changes").Default("false").Bool()
	lookupPolicy  = kingpin.Flag("lookup", "Which resolved addresses to use. Valid policies: [default, use_all_dns_ips]").Default("default").String()
	sendBuffer    = kingpin.Flag("socket.send-buffer", "Socket send buffer size handed to connecting clients").Default("131072").Int()
	receiveBuffer = kingpin.Flag("socket.receive-buffer", "Socket receive buffer size handed to connecting clients").Default("65536").Int()
	defaultPort   = kingpin.Flag("node.default-port", "Port of nodes given without one").Default("9092").Int()
	dnsRefresh    = kingpin.Flag("dns.refresh", "Interval for resolving the nodes again (0 if disabled)").Default("1m").Duration()
	dnsTimeout    = kingpin.Flag("dns.timeout", "Timeout for resolving a single node").Default("5s").Duration()
	dnsNameServer = kingpin.Flag("dns.nameserver", "DNS server used to resolve hostname of nodes").Default("").String()
	dnsMode       = kingpin.Flag("dns.mode", "How nodes are resolved. Valid modes: [system, direct, kubernetes]").Default("system").String()
	dnsQueryOrder = kingpin.Flag("dns.query-order", "Record types queried in direct mode, comma separated").Default("a,aaaa").String()
	kubeconfig    = kingpin.Flag("k8s.kubeconfig", "Path to kubeconfig used in kubernetes mode (in-cluster config if empty)").Default("").String()
	tailnet       = kingpin.Flag("tailscale.tailnet", "Tailnet to discover nodes from, API key is read from TS_API_KEY").Default("").String()
	durationMode  = kingpin.Flag("metrics.durationunit", "Export resolve durations as either millis (default), or seconds, or both. Valid choices: [ms, s, both]").Default("ms").String()
	logLevel      = kingpin.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error, fatal]").Default("info").String()
	printOnly     = kingpin.Flag("print", "Resolve all nodes once, print their candidates and exit").Default("false").Bool()
	nodeArgs      = kingpin.Arg("nodes", "A list of nodes ([id=]host[:port])").Strings()
)

func main() {
	kingpin.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	setLogLevel(*logLevel)

	scale := durationUnitFromString(*durationMode)
	if scale == durationInvalid {
		kingpin.FatalUsage("metrics.durationunit must be `ms` for millis, or `s` for seconds, or `both`")
	}

	if mpath := *metricsPath; mpath == "" {
		log.Warnln("web.telemetry-path is empty, correcting to `/metrics`")
		mpath = "/metrics"
		metricsPath = &mpath
	} else if mpath[0] != '/' {
		mpath = "/" + mpath
		metricsPath = &mpath
	}

	cfg, err := loadConfig()
	if err != nil {
		kingpin.FatalUsage("could not load config: %v", err)
	}

	var discovered []config.NodeConfig
	var static staticResolver
	if *tailnet != "" {
		discovered, static, err = tsDiscover(context.Background(), *tailnet)
		if err != nil {
			log.Errorln(err)
			os.Exit(2)
		}
		cfg.Nodes = append(cfg.Nodes, discovered...)
	}

	if err := validateConfig(cfg); err != nil {
		kingpin.FatalUsage("%v", err)
	}

	resolver, err := setupResolver(cfg, static)
	if err != nil {
		kingpin.FatalUsage("%v", err)
	}

	if *printOnly {
		if failed := printCandidates(os.Stdout, cfg, resolver); failed > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	reg := &registry{}
	targets := newTargets(cfg, resolver)
	refreshTargets(context.Background(), targets)
	reg.replace(targets, newCustomLabelSet(cfg.Nodes))

	go startDNSAutoRefresh(cfg.DNS.Refresh.Duration(), reg)

	if *configWatch && *configFile != "" {
		w, err := newConfigWatcher(*configFile)
		if err != nil {
			log.Errorln(err)
			os.Exit(2)
		}
		go w.run(context.Background(), func() {
			reloadConfig(reg, resolver, discovered)
		})
	}

	startServer(reg, scale)
}

func printVersion() {
	fmt.Println("nodeaddr-exporter")
	fmt.Printf("Version: %s\n", version)
	fmt.Println("Exports the connection candidates of nodes resolving to multiple addresses")
}

func startDNSAutoRefresh(interval time.Duration, reg *registry) {
	if interval <= 0 {
		return
	}

	for range time.NewTicker(interval).C {
		log.Debugln("Refreshing DNS")
		targets, _ := reg.get()
		refreshTargets(context.Background(), targets)
	}
}

// reloadConfig replaces the exported nodes by the ones of the current config
// file. The resolver is kept.
func reloadConfig(reg *registry, resolver nodeaddr.Resolver, discovered []config.NodeConfig) {
	cfg, err := loadConfig()
	if err != nil {
		log.Errorf("could not reload config: %v", err)
		return
	}
	cfg.Nodes = append(cfg.Nodes, discovered...)

	if err := validateConfig(cfg); err != nil {
		log.Errorf("ignoring invalid config: %v", err)
		return
	}

	targets := newTargets(cfg, resolver)
	refreshTargets(context.Background(), targets)
	reg.replace(targets, newCustomLabelSet(cfg.Nodes))
	log.Infof("reloaded config with %d nodes", len(targets))
}

// printCandidates writes the candidates of every node in connection order and
// returns the number of nodes that could not be resolved.
func printCandidates(w io.Writer, cfg *config.Config, resolver nodeaddr.Resolver) int {
	failed := 0
	for _, node := range config.Nodes(cfg.Nodes, cfg.DefaultPort) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DNS.Timeout.Duration())
		it, err := nodeaddr.NewIterator(ctx, resolver, node, cfg.Settings())
		cancel()
		if err != nil {
			fmt.Fprintf(w, "%v: %v\n", node, err)
			failed++
			continue
		}

		fmt.Fprintf(w, "%v:", node)
		for {
			addr, err := it.CurrentAddress()
			if err != nil {
				log.Errorln(err)
				break
			}
			fmt.Fprintf(w, " %s", addr.IP)

			if !it.HasMoreAddresses() {
				break
			}
			if err := it.Advance(); err != nil {
				log.Errorln(err)
				break
			}
		}
		fmt.Fprintln(w)
	}

	return failed
}

func startServer(reg *registry, scale durationUnit) {
	log.Infof("Starting nodeaddr exporter (Version: %s)", version)
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, indexHTML, *metricsPath)
	})

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(&nodeCollector{registry: reg, scale: scale})

	l := log.New()
	l.Level = log.ErrorLevel

	h := promhttp.HandlerFor(promReg, promhttp.HandlerOpts{
		ErrorLog:      l,
		ErrorHandling: promhttp.ContinueOnError,
	})
	http.Handle(*metricsPath, h)

	log.Infof("Listening for %s on %s", *metricsPath, *listenAddress)
	log.Fatal(http.ListenAndServe(*listenAddress, nil))
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		cfg := config.Config{}
		if err := addFlagToConfig(&cfg); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	f, err := os.Open(*configFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file: %w", err)
	}
	defer f.Close()

	cfg, err := config.FromYAML(f)
	if err != nil {
		return nil, err
	}

	if err := addFlagToConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// addFlagToConfig updates cfg with command line flag values, unless the
// config has non-zero values.
func addFlagToConfig(cfg *config.Config) error {
	if len(cfg.Nodes) == 0 {
		for _, arg := range *nodeArgs {
			n, err := config.ParseNode(arg)
			if err != nil {
				return err
			}
			cfg.Nodes = append(cfg.Nodes, n)
		}
	}
	if cfg.Lookup == nil {
		p, err := nodeaddr.ParseLookupPolicy(*lookupPolicy)
		if err != nil {
			return err
		}
		cfg.Lookup = &p
	}
	if cfg.DefaultPort == 0 {
		cfg.DefaultPort = *defaultPort
	}
	if cfg.Socket.SendBuffer == 0 {
		cfg.Socket.SendBuffer = *sendBuffer
	}
	if cfg.Socket.ReceiveBuffer == 0 {
		cfg.Socket.ReceiveBuffer = *receiveBuffer
	}
	if cfg.DNS.Refresh == 0 {
		cfg.DNS.Refresh.Set(*dnsRefresh)
	}
	if cfg.DNS.Timeout == 0 {
		cfg.DNS.Timeout.Set(*dnsTimeout)
	}
	if cfg.DNS.Nameserver == "" {
		cfg.DNS.Nameserver = *dnsNameServer
	}
	if cfg.DNS.Mode == "" {
		cfg.DNS.Mode = *dnsMode
	}
	if len(cfg.DNS.QueryOrder) == 0 {
		cfg.DNS.QueryOrder = strings.Split(*dnsQueryOrder, ",")
	}

	return nil
}

func validateConfig(cfg *config.Config) error {
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("no nodes specified")
	}
	if cfg.DefaultPort < 1 || cfg.DefaultPort > 65535 {
		return fmt.Errorf("node.default-port must be between 1 and 65535")
	}
	if cfg.Socket.SendBuffer < 1 {
		return fmt.Errorf("socket.send-buffer must be greater than 0")
	}
	if cfg.Socket.ReceiveBuffer < 1 {
		return fmt.Errorf("socket.receive-buffer must be greater than 0")
	}
	if cfg.DNS.Timeout <= 0 {
		return fmt.Errorf("dns.timeout must be greater than 0")
	}

	for _, n := range cfg.Nodes {
		for name := range n.Labels {
			if err := validateLabelName(name); err != nil {
				return fmt.Errorf("node %s: %w", n.Host, err)
			}
		}
	}

	return nil
}

// validateLabelName rejects custom label names Prometheus would refuse and
// names already used by the exported metrics.
func validateLabelName(name string) error {
	if !model.LabelName(name).IsValid() || strings.HasPrefix(name, model.ReservedLabelPrefix) {
		return fmt.Errorf("%q is not a valid label name", name)
	}
	if slices.Contains(labelNames, name) || slices.Contains(candidateLabelNames, name) {
		return fmt.Errorf("label %q is reserved", name)
	}

	return nil
}

const indexHTML = `<!doctype html>
<html>
<head>
	<meta charset="UTF-8">
	<title>nodeaddr Exporter (Version ` + version + `)</title>
</head>
<body>
	<h1>nodeaddr Exporter</h1>
	<p><a href="%s">Metrics</a></p>
</body>
</html>
`
