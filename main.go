package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path"
	"syscall"

	pclog "github.com/peer-calls/log"
	"github.com/spf13/pflag"

	"github.com/danielchen8624/smartdim/config"
	"github.com/danielchen8624/smartdim/display"
	"github.com/danielchen8624/smartdim/service"
	"github.com/danielchen8624/smartdim/types"
)

var (
	Version    = "unknown"
	CommitHash = ""
)

type Arguments struct {
	SocketPath  string
	HistoryPath string
	ConfigPath  string

	NoStartDaemon bool

	Intensity string
	Warmth    string

	ToggleIntensity bool
	ToggleWarmth    bool
	Reset           bool
	Status          bool
	Subscribe       bool

	Solar     bool
	Latitude  float64
	Longitude float64

	Version bool
	Verbose bool
}

// Request assembles the client request from the flags. With no
// operation flags at all it falls back to a status query.
func (a Arguments) Request() types.Request {
	request := types.Request{
		ToggleIntensity: a.ToggleIntensity,
		ToggleWarmth:    a.ToggleWarmth,
		Reset:           a.Reset,
		Status:          a.Status,
	}

	if a.Intensity != "" || a.Warmth != "" {
		request.State = &types.StatePatch{
			Intensity: a.Intensity,
			Warmth:    a.Warmth,
		}
	}

	if a.Subscribe {
		request.Subscribe = []types.SubscriptionKey{types.SubscriptionKeyState}
	}

	if request.State == nil && !request.ToggleIntensity && !request.ToggleWarmth &&
		!request.Reset && len(request.Subscribe) == 0 {
		request.Status = true
	}

	return request
}

func getSocketDir() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return runtimeDir
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return homeDir
	}

	return ""
}

func parseArgs(argsSlice []string) (Arguments, error) {
	var args Arguments

	fs := pflag.NewFlagSet(argsSlice[0], pflag.ContinueOnError)

	fs.SetOutput(os.Stdout)

	fs.Usage = func() {
		fmt.Fprintf(os.Stdout, "Usage of %s:\n", argsSlice[0])
		fs.PrintDefaults()
	}

	tempDir := os.TempDir()

	defaultHistoryPath := path.Join(tempDir, ".smartdim.hist")
	defaultSocketPath := path.Join(getSocketDir(), "smartdim.sock")

	fs.StringVarP(&args.HistoryPath, "history", "H", defaultHistoryPath, "History file to use")
	fs.StringVarP(&args.SocketPath, "sock", "s", defaultSocketPath, "Unix domain socket path for RPC")
	fs.StringVarP(&args.ConfigPath, "config", "c", "", "Curve tuning file (TOML), reloaded on change")

	fs.StringVarP(&args.Intensity, "intensity", "i", "", "Brightness intensity in [0,1], prefix with + or - for relative")
	fs.StringVarP(&args.Warmth, "warmth", "w", "", "Warmth strength in [0,1], prefix with + or - for relative")

	fs.BoolVar(&args.ToggleIntensity, "toggle-intensity", false, "Mute or unmute the brightness control")
	fs.BoolVar(&args.ToggleWarmth, "toggle-warmth", false, "Mute or unmute the warmth control")
	fs.BoolVarP(&args.Reset, "reset", "r", false, "Zero both controls and restore platform defaults")
	fs.BoolVar(&args.Status, "status", false, "Print the current state")
	fs.BoolVar(&args.Subscribe, "subscribe", false, "Stay connected and print state changes")

	fs.BoolVar(&args.Solar, "solar", false, "Drive warmth from the solar elevation schedule")
	fs.Float64Var(&args.Latitude, "lat", 0, "Latitude for the solar schedule")
	fs.Float64Var(&args.Longitude, "lng", 0, "Longitude for the solar schedule")

	fs.BoolVarP(&args.NoStartDaemon, "no-daemon", "D", false, "Do not start daemon if not running")

	fs.BoolVarP(&args.Version, "version", "V", false, "Print version and exit")
	fs.BoolVarP(&args.Verbose, "verbose", "v", false, "Print client socket request and response messages")

	if err := fs.Parse(argsSlice); err != nil {
		return Arguments{}, fmt.Errorf("parsing args: %w", err)
	}

	return args, nil
}

func main() {
	args, err := parseArgs(os.Args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(2)
		}
		panic(err)
	}

	if args.Version {
		fmt.Println(Version)

		if CommitHash != "" {
			fmt.Println(CommitHash)
		}

		return
	}

	if err := main2(args); err != nil {
		panic(err)
	}
}

func main2(args Arguments) error {
	ctx := context.Background()

	// We need to handle these events so that the listener removes the socket
	// file gracefully, otherwise the daemon might not start successfully next
	// time.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := pclog.New()

	_, err := os.Stat(args.SocketPath)
	if err != nil && !args.NoStartDaemon {
		tuning, err := config.Load(args.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load tuning: %w", err)
		}

		disp, err := display.New(logger, "")
		if err != nil {
			return fmt.Errorf("failed to open display: %w", err)
		}

		defer disp.Close()

		svc := service.New(service.Params{
			SocketPath:  args.SocketPath,
			HistoryPath: args.HistoryPath,
			Options:     tuning.Options(),
		}, disp)

		if err := svc.Listen(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}

		log.Printf("Started daemon\n")

		go func() {
			if err := svc.Serve(ctx); err != nil {
				log.Printf("Serve done: %s\n", err)
			}
		}()

		// The daemon is useful without D-Bus, so a missing session bus
		// only logs.
		if dbusConn, err := NewDBus(ctx, logger, svc); err != nil {
			log.Printf("DBus interface unavailable: %s\n", err)
		} else {
			defer dbusConn.Close()
		}

		if args.ConfigPath != "" {
			err := config.Watch(ctx, args.ConfigPath, func(tuning config.Tuning) {
				if _, err := svc.SetOptions(ctx, tuning.Options()); err != nil {
					log.Printf("Failed to apply tuning: %s\n", err)
				}
			})
			if err != nil {
				log.Printf("Failed to watch tuning file: %s\n", err)
			}
		}

		if args.Solar {
			go svc.RunSolar(ctx, service.SolarParams{
				Latitude:       args.Latitude,
				Longitude:      args.Longitude,
				ElevationNight: -6,
				ElevationDay:   3,
				WarmthNight:    0.8,
				WarmthDay:      0,
			})
		}
	} else if !args.Subscribe {
		// So we don't block at the end.
		cancel()
	}

	if err := runClient(ctx, args); err != nil {
		return err
	}

	// If we started the server, keep running until the context is canceled.
	<-ctx.Done()

	return nil
}

func runClient(ctx context.Context, args Arguments) error {
	conn, err := net.Dial("unix", args.SocketPath)
	if err != nil {
		return fmt.Errorf("dial unix socket: %w", err)
	}

	defer conn.Close()

	request, err := json.Marshal(args.Request())
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	if args.Verbose {
		fmt.Println(string(request))
	}

	if err := json.NewEncoder(conn).Encode(json.RawMessage(request)); err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	decoder := json.NewDecoder(conn)

	printResponse := func(res types.Response) error {
		if args.Verbose {
			raw, _ := json.Marshal(res)
			fmt.Println(string(raw))
		}

		if res.Error != "" {
			return fmt.Errorf("daemon error: %s", res.Error)
		}

		if res.State != nil && !args.Verbose {
			fmt.Printf("intensity=%.3f warmth=%.3f enabled=%t\n",
				res.State.Intensity, res.State.Warmth, res.State.Enabled)
		}

		return nil
	}

	var res types.Response

	if err := decoder.Decode(&res); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if err := printResponse(res); err != nil {
		return err
	}

	if !args.Subscribe {
		return nil
	}

	// Keep printing pushed state changes until interrupted.
	for ctx.Err() == nil {
		var res types.Response

		if err := decoder.Decode(&res); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("decoding update: %w", err)
		}

		if err := printResponse(res); err != nil {
			return err
		}
	}

	return nil
}
