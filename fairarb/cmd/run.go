package cmd

import (
	"os"

	"github.com/sarchlab/fairarb/arbitration/workload"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario and report the wait time of every client.",
	Long: "`run` simulates the scenario step by step. Services can be " +
		"recorded into SQLite or ClickHouse, and the run can be watched " +
		"from a browser with --monitor. Flag defaults come from FAIRARB_* " +
		"environment variables, also read from a .env file.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromFlags(cmd)

		scenario, err := workload.LoadScenario(args[0])
		if err != nil {
			return err
		}

		r, err := newRunner(cfg, scenario, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		report, err := r.run()
		if report.Steps > 0 {
			printReport(os.Stderr, report)
		}

		if err != nil {
			return err
		}

		r.hold()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	defaults, err := LoadConfig(".env")
	if err != nil {
		panic(err)
	}

	flags := runCmd.Flags()
	flags.String("db", defaults.DB,
		"record services into this SQLite file (without extension)")
	flags.String("recorder", defaults.Recorder,
		"recording backend, sqlite or clickhouse")
	flags.String("clickhouse-dsn", defaults.ClickHouseDSN,
		"ClickHouse connection string")
	flags.String("mysql-dsn", defaults.MySQLDSN,
		"also export services to this MySQL database")
	flags.String("mongodb-uri", defaults.MongoDBURI,
		"also export services to this MongoDB server")
	flags.Bool("monitor", defaults.Monitor, "serve the monitoring page")
	flags.Int("monitor-port", defaults.MonitorPort,
		"port of the monitoring page, 0 picks a free one")
	flags.Bool("open-browser", defaults.OpenBrowser,
		"open the monitoring page in a browser")
	flags.Uint64("max-steps", defaults.MaxSteps,
		"stop after this many steps even if the scenario asks for more")
	flags.Bool("trace", false, "print every step")
	flags.String("snapshot", "",
		"write the final component states into this JSON file")
	flags.Bool("hold", false, "keep the monitor running after the run")
}

func configFromFlags(cmd *cobra.Command) Config {
	flags := cmd.Flags()
	cfg := Config{}

	cfg.DB, _ = flags.GetString("db")
	cfg.Recorder, _ = flags.GetString("recorder")
	cfg.ClickHouseDSN, _ = flags.GetString("clickhouse-dsn")
	cfg.MySQLDSN, _ = flags.GetString("mysql-dsn")
	cfg.MongoDBURI, _ = flags.GetString("mongodb-uri")
	cfg.Monitor, _ = flags.GetBool("monitor")
	cfg.MonitorPort, _ = flags.GetInt("monitor-port")
	cfg.OpenBrowser, _ = flags.GetBool("open-browser")
	cfg.MaxSteps, _ = flags.GetUint64("max-steps")
	cfg.Trace, _ = flags.GetBool("trace")
	cfg.Snapshot, _ = flags.GetString("snapshot")
	cfg.Hold, _ = flags.GetBool("hold")

	return cfg
}
