// calagent turns natural-language calendar commands, Chinese or English,
// into calendar operations. It runs one-shot from the command line or as an
// HTTP service.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"calagent/internal/agent"
	"calagent/internal/calendar"
	"calagent/internal/config"
	"calagent/internal/interpreter"
	"calagent/internal/llm"
	"calagent/internal/logging"
	"calagent/internal/server"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		os.Exit(1)
	}
}

// NewRootCommand builds the calagent CLI.
func NewRootCommand() *cobra.Command {
	var (
		configPath   string
		calendarName string
		strategy     string
	)

	rootCmd := &cobra.Command{
		Use:   "calagent [command text]",
		Short: "📅 Natural-language calendar assistant",
		Long: "calagent interprets free-form calendar commands like\n" +
			"'创建明天下午3点和张三的会议' or 'show my schedule for today'\n" +
			"and executes them against a CalDAV or in-memory calendar.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			a, err := buildAgent(configPath, strategy)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			fmt.Println(cyan("🔍 " + text))

			reply, err := a.Process(cmd.Context(), text, calendarName)
			if err != nil {
				return fmt.Errorf("处理指令时出现错误: %w", err)
			}
			fmt.Println(green(reply))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&calendarName, "calendar", "", "Target calendar name")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "Interpreter strategy (rule|model)")

	rootCmd.AddCommand(newServeCommand(&configPath, &strategy))
	rootCmd.AddCommand(newCalendarsCommand(&configPath, &strategy))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newServeCommand(configPath, strategy *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *strategy)
			if err != nil {
				return err
			}
			a, err := buildAgentFromConfig(cfg)
			if err != nil {
				return err
			}

			serverCfg := server.DefaultConfig()
			serverCfg.Host = cfg.Server.Host
			serverCfg.Port = cfg.Server.Port
			srv := server.New(a, serverCfg, logging.NewComponentLogger("server"))

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-stop
				if err := srv.Stop(); err != nil {
					fmt.Fprintln(os.Stderr, red("Shutdown error: "+err.Error()))
				}
			}()

			fmt.Println(green("📅 calagent API listening on " + cfg.Server.Addr()))
			return srv.Start()
		},
	}
}

func newCalendarsCommand(configPath, strategy *string) *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List available calendars",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAgent(*configPath, *strategy)
			if err != nil {
				return err
			}

			names, err := a.Calendars(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("未找到可用的日历")
				return nil
			}
			fmt.Println("📋 可用日历:")
			for _, name := range names {
				fmt.Println("• " + name)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("calagent v0.1.0")
		},
	}
}

func loadConfig(path, strategyOverride string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if strategyOverride != "" {
		cfg.Interpreter.Strategy = strategyOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func buildAgent(configPath, strategyOverride string) (*agent.Agent, error) {
	cfg, err := loadConfig(configPath, strategyOverride)
	if err != nil {
		return nil, err
	}
	return buildAgentFromConfig(cfg)
}

// buildAgentFromConfig assembles store, interpreter and dispatcher from
// validated configuration.
func buildAgentFromConfig(cfg *config.Config) (*agent.Agent, error) {
	logging.SetLevel(logging.ParseLevel(cfg.Logging.Level))

	var store calendar.Store
	switch cfg.Calendar.Store {
	case config.StoreCalDAV:
		caldavStore, err := calendar.NewCalDAVStore(
			cfg.Calendar.ServerURL,
			cfg.Calendar.Username,
			cfg.Calendar.Password,
			cfg.Calendar.Timeout,
			logging.NewComponentLogger("caldav"),
		)
		if err != nil {
			return nil, fmt.Errorf("日历客户端初始化失败: %w", err)
		}
		store = caldavStore
	default:
		store = calendar.NewMemoryStore()
	}

	var client llm.Client
	if cfg.Interpreter.Strategy == config.StrategyModel {
		factory := llm.NewFactory()
		var err error
		client, err = factory.GetClient(cfg.LLM.Provider, cfg.LLM.Model, llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.TimeoutSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("create completion client: %w", err)
		}
	}

	interp, err := interpreter.New(cfg.Interpreter.Strategy, client, logging.NewComponentLogger("interpreter"))
	if err != nil {
		return nil, err
	}

	a := agent.New(interp, store, logging.NewComponentLogger("agent"))
	return a.WithDefaultCalendar(cfg.Calendar.DefaultName), nil
}
