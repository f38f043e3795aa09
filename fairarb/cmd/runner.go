package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sarchlab/fairarb/arbitration"
	"github.com/sarchlab/fairarb/arbitration/arbitercomp"
	"github.com/sarchlab/fairarb/arbitration/workload"
	"github.com/sarchlab/fairarb/datarecording"
	"github.com/sarchlab/fairarb/monitoring"
	"github.com/sarchlab/fairarb/sim/hooking"
	"github.com/sarchlab/fairarb/sim/simulation"
	"github.com/sarchlab/fairarb/sim/timing"
	"github.com/sarchlab/fairarb/tracing"
)

// Report summarizes a finished run.
type Report struct {
	Scenario  string
	Steps     uint64
	Time      timing.VTimeInSec
	Services  uint64
	Transfers uint64
	Recorded  int
	Exported  map[string]int
	Stats     []tracing.ClientStats
}

// newRecorder opens the recording backend of a run.
var newRecorder = datarecording.NewDataRecorderWithConfig

// runner wires a scenario into an engine, an arbiter component, tracers, and
// optionally a monitor.
type runner struct {
	cfg      Config
	scenario *workload.Scenario
	trace    io.Writer

	sim      *simulation.Simulation
	engine   *timing.SerialEngine
	comp     *arbitercomp.Comp
	target   *arbitercomp.Target
	waits    *tracing.WaitTimeTracer
	recorder datarecording.DataRecorder
	db       *tracing.DBTracer
	mysql    *tracing.MySQLTracer
	mongo    *tracing.MongoDBTracer
	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
}

func newRunner(
	cfg Config,
	scenario *workload.Scenario,
	trace io.Writer,
) (*runner, error) {
	r := &runner{
		cfg:      cfg,
		scenario: scenario,
		trace:    trace,
		sim:      simulation.NewSimulation(),
		engine:   timing.NewSerialEngine(),
	}
	r.sim.RegisterEngine(r.engine)

	steps := scenario.Steps
	if cfg.MaxSteps > 0 && cfg.MaxSteps < steps {
		steps = cfg.MaxSteps
	}

	var clients []arbitration.Client
	for _, c := range scenario.BuildClients(r.engine) {
		clients = append(clients, c)
	}

	r.target = arbitercomp.NewTarget("Target", r.engine, scenario.Freq())

	comp, err := arbitercomp.MakeBuilder().
		WithEngine(r.engine).
		WithFreq(scenario.Freq()).
		WithClients(clients...).
		WithResource(r.target).
		WithStepLimit(steps).
		BuildE("Arbiter")
	if err != nil {
		return nil, err
	}

	r.comp = comp
	r.sim.RegisterComponent(comp)
	r.sim.RegisterComponent(r.target)

	if err := r.attachTracers(); err != nil {
		return nil, err
	}

	if cfg.Trace {
		fmt.Fprintf(trace, "%6s  %-10s  %-8s  %-8s  %s\n",
			"step", "requests", "action", "grant", "bus")
		comp.AcceptHook(hooking.HookFunc(r.printStep))
	}

	if cfg.Monitor {
		r.attachMonitor(steps)
	}

	return r, nil
}

func (r *runner) attachTracers() error {
	r.waits = tracing.NewWaitTimeTracer(tracing.AllTasks)
	tracers := []tracing.Tracer{r.waits}

	if r.cfg.recording() {
		recorder, err := newRecorder(r.cfg.recorderConfig())
		if err != nil {
			return err
		}

		r.recorder = recorder
		r.db = tracing.NewDBTracer(recorder, tracing.AllTasks)
		tracers = append(tracers, r.db)
	}

	if r.cfg.MySQLDSN != "" {
		mysql, err := tracing.NewMySQLTracer(
			r.cfg.MySQLDSN, tracing.AllTasks, 0)
		if err != nil {
			r.closeRecorder()
			return err
		}

		r.mysql = mysql
		tracers = append(tracers, mysql)
	}

	if r.cfg.MongoDBURI != "" {
		mongo, err := tracing.NewMongoDBTracer(
			context.Background(), r.cfg.MongoDBURI, tracing.AllTasks)
		if err != nil {
			r.closeRecorder()

			if r.mysql != nil {
				_ = r.mysql.Close()
			}

			return err
		}

		r.mongo = mongo
		tracers = append(tracers, mongo)
	}

	hook := tracing.NewServiceHook(r.scenario.Name, r.engine, tracers...)
	r.comp.Arbiter().AcceptHook(hook)

	return nil
}

// closeRecorder releases the recorder when setting up the run fails.
func (r *runner) closeRecorder() {
	if r.recorder != nil {
		_ = r.recorder.Close()
		r.recorder = nil
	}
}

func (r *runner) attachMonitor(steps uint64) {
	r.monitor = monitoring.NewMonitor().
		WithPortNumber(r.cfg.MonitorPort).
		WithBrowser(r.cfg.OpenBrowser)
	r.monitor.RegisterEngine(r.sim.GetEngine())

	for _, c := range r.sim.Components() {
		r.monitor.RegisterComponent(c)
	}

	r.progress = r.monitor.CreateProgressBar(r.scenario.Name, steps)
	r.comp.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos == arbitercomp.HookPosStep {
			r.progress.IncrementFinished(1)
		}
	}))

	r.monitor.StartServer()
}

func (r *runner) printStep(ctx hooking.HookCtx) {
	if ctx.Pos != arbitercomp.HookPosStep {
		return
	}

	result := ctx.Item.(arbitration.StepResult)
	outputs := ctx.Detail.(arbitercomp.Outputs)
	n := r.comp.Arbiter().NumClients()

	fmt.Fprintf(r.trace, "%6d  %-10s  %-8s  %-8s  0x%02x/0x%08x/%s\n",
		result.Step,
		result.Requests.Bits(n),
		result.Action,
		outputs.Granted.Bits(n),
		outputs.Bus.Address,
		outputs.Bus.Data,
		outputs.Bus.Direction,
	)
}

// run runs the scenario to the end and closes the recorder. Request
// expressions that failed to evaluate during the run are reported as an error
// after everything is written.
func (r *runner) run() (Report, error) {
	r.comp.TickNow()

	if err := r.engine.Run(); err != nil {
		return Report{}, err
	}

	report := Report{
		Scenario:  r.scenario.Name,
		Steps:     r.comp.Arbiter().StepCount(),
		Time:      r.engine.Now(),
		Services:  r.waits.TotalServices(),
		Transfers: r.target.Transfers(),
		Stats:     r.waits.Stats(),
	}

	if r.progress != nil {
		r.monitor.CompleteProgressBar(r.progress)
	}

	if r.cfg.Snapshot != "" {
		if err := r.sim.SaveFile(r.cfg.Snapshot); err != nil {
			return report, err
		}
	}

	if r.db != nil {
		report.Recorded = r.db.Count()

		if err := r.recorder.Close(); err != nil {
			return report, err
		}
	}

	if err := r.closeExporters(&report); err != nil {
		return report, err
	}

	if err := r.scenario.Err(); err != nil {
		return report, fmt.Errorf("requests not evaluated: %w", err)
	}

	return report, nil
}

func (r *runner) closeExporters(report *Report) error {
	report.Exported = make(map[string]int)

	if r.mysql != nil {
		if err := r.mysql.Close(); err != nil {
			return err
		}

		report.Exported["mysql"] = r.mysql.Count()
	}

	if r.mongo != nil {
		report.Exported["mongodb"] = r.mongo.Count()

		if err := r.mongo.Close(context.Background()); err != nil {
			return err
		}
	}

	return nil
}

// hold blocks until interrupted so the monitor stays reachable.
func (r *runner) hold() {
	if r.monitor == nil || !r.cfg.Hold {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintln(os.Stderr, "Run finished, press Ctrl+C to exit.")
	<-ctx.Done()
}

func printReport(w io.Writer, report Report) {
	fmt.Fprintf(w, "Scenario %s: %d steps, %.9f s, %d services, %d transfers",
		report.Scenario, report.Steps, report.Time, report.Services,
		report.Transfers)

	if report.Recorded > 0 {
		fmt.Fprintf(w, ", %d recorded", report.Recorded)
	}

	for _, name := range []string{"mysql", "mongodb"} {
		if n, ok := report.Exported[name]; ok {
			fmt.Fprintf(w, ", %d exported to %s", n, name)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%6s  %8s  %9s  %8s  %9s\n",
		"client", "services", "avg wait", "max wait", "avg hold")

	for _, s := range report.Stats {
		fmt.Fprintf(w, "%6d  %8d  %9.2f  %8d  %9.2f\n",
			s.Client, s.Services, s.AverageWait, s.MaxWait, s.AverageHold)
	}
}
