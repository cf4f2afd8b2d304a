// Package main provides the autoapply command line runner. It loads the
// candidate profile and resume, picks a platform adapter for the posting
// URL, and drives the form completion engine against a live browser or
// an in-memory dry run.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/autoapply/pkg/adapters"
	"github.com/entrhq/autoapply/pkg/answers"
	"github.com/entrhq/autoapply/pkg/autofill"
	"github.com/entrhq/autoapply/pkg/backend"
	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/dom/memdom"
	"github.com/entrhq/autoapply/pkg/dom/pwdom"
	"github.com/entrhq/autoapply/pkg/jobpost"
	"github.com/entrhq/autoapply/pkg/logging"
	"github.com/entrhq/autoapply/pkg/profile"
	"github.com/entrhq/autoapply/pkg/resume"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	URL         string
	ProfilePath string
	ResumePath  string
	AdapterName string
	Headless    bool
	Confirm     bool
	Watch       bool
	DryRun      bool
	OutputFile  string
	Timeout     time.Duration
	ConfigFile  string
	BackendURL  string
	ShowVersion bool
}

// fileConfig mirrors the YAML run-config file. Flags given on the
// command line take precedence over file values.
type fileConfig struct {
	URL        string         `yaml:"url"`
	Profile    string         `yaml:"profile"`
	Resume     string         `yaml:"resume"`
	Adapter    string         `yaml:"adapter"`
	Headless   *bool          `yaml:"headless"`
	Confirm    *bool          `yaml:"confirm"`
	DryRun     *bool          `yaml:"dry_run"`
	Output     string         `yaml:"output"`
	Timeout    *time.Duration `yaml:"timeout"`
	BackendURL string         `yaml:"backend_url"`
}

func main() {
	// A .env alongside the binary supplies tokens without exporting.
	_ = godotenv.Load()

	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("autoapply v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		cancel()
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.URL, "url", "", "Job posting URL (required)")
	flag.StringVar(&config.ProfilePath, "profile", "", "Path to a profile file (JSON or YAML)")
	flag.StringVar(&config.ResumePath, "resume", "", "Path to a resume file")
	flag.StringVar(&config.AdapterName, "adapter", "", "Force a platform adapter by name")
	flag.BoolVar(&config.Headless, "headless", true, "Run the browser headless")
	flag.BoolVar(&config.Confirm, "confirm", false, "Prompt to confirm final submission")
	flag.BoolVar(&config.Watch, "watch", false, "Show a live status view")
	flag.BoolVar(&config.DryRun, "dry-run", false, "Report what would be filled without a browser")
	flag.StringVar(&config.OutputFile, "output", "", "Write a JSON run summary to this file")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Minute, "Overall run timeout")
	flag.StringVar(&config.ConfigFile, "config", "", "Path to a run-config file (YAML)")
	flag.StringVar(&config.BackendURL, "backend-url", os.Getenv("AUTOAPPLY_BACKEND_URL"), "Candidate data service base URL")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "autoapply - agentic job application form completion\n\n")
		fmt.Fprintf(os.Stderr, "Usage: autoapply [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Fill an application from a local profile\n")
		fmt.Fprintf(os.Stderr, "  autoapply -url https://boards.greenhouse.io/acme/jobs/123 -profile me.yaml -resume cv.pdf\n\n")
		fmt.Fprintf(os.Stderr, "  # Dry run without a browser\n")
		fmt.Fprintf(os.Stderr, "  autoapply -url https://jobs.lever.co/acme/abc -profile me.json -dry-run\n\n")
		fmt.Fprintf(os.Stderr, "  # Confirm the final submit interactively\n")
		fmt.Fprintf(os.Stderr, "  autoapply -config run.yaml -confirm\n\n")
	}

	flag.Parse()
	return config
}

// applyConfigFile folds file values into flags that were left at their
// defaults.
func applyConfigFile(config *CLIConfig) error {
	if config.ConfigFile == "" {
		return nil
	}
	data, err := os.ReadFile(config.ConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if config.URL == "" {
		config.URL = fc.URL
	}
	if config.ProfilePath == "" {
		config.ProfilePath = fc.Profile
	}
	if config.ResumePath == "" {
		config.ResumePath = fc.Resume
	}
	if config.AdapterName == "" {
		config.AdapterName = fc.Adapter
	}
	if config.OutputFile == "" {
		config.OutputFile = fc.Output
	}
	if config.BackendURL == "" {
		config.BackendURL = fc.BackendURL
	}
	if fc.Headless != nil && !flagWasSet("headless") {
		config.Headless = *fc.Headless
	}
	if fc.Confirm != nil && !flagWasSet("confirm") {
		config.Confirm = *fc.Confirm
	}
	if fc.DryRun != nil && !flagWasSet("dry-run") {
		config.DryRun = *fc.DryRun
	}
	if fc.Timeout != nil && !flagWasSet("timeout") {
		config.Timeout = *fc.Timeout
	}
	return nil
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func run(ctx context.Context, config *CLIConfig) error {
	if err := applyConfigFile(config); err != nil {
		return err
	}
	if config.URL == "" {
		return fmt.Errorf("a posting URL is required (-url or config file)")
	}

	logger, logErr := logging.NewLogger("cli")
	if logErr != nil {
		log.Printf("File logging unavailable: %v", logErr)
	}
	defer logger.Close()

	client := backend.New(config.BackendURL, os.Getenv("AUTOAPPLY_TOKEN"), logger)

	prof, err := loadProfile(ctx, config, client)
	if err != nil {
		return err
	}
	cv, err := loadResume(ctx, config, client)
	if err != nil {
		return err
	}

	registry := adapters.NewRegistry()
	adapter, err := pickAdapter(registry, config)
	if err != nil {
		return err
	}
	logger.Infof("using adapter %q for %s", adapter.Name, config.URL)

	plan := adapters.BuildPlan(adapter, prof, cv)

	opts := []autofill.Option{autofill.WithLogger(logger)}
	if provider := answerProvider(prof, logger); provider != nil {
		opts = append(opts, autofill.WithAnswerProvider(provider))
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	if config.DryRun {
		return runDry(ctx, config, client, plan, opts)
	}
	return runLive(ctx, config, plan, opts, logger)
}

// loadProfile reads the profile from disk or fetches it from the
// backend when a service URL is configured.
func loadProfile(ctx context.Context, config *CLIConfig, client *backend.Client) (*profile.Profile, error) {
	if config.ProfilePath != "" {
		return profile.Load(config.ProfilePath)
	}
	if config.BackendURL != "" {
		return client.FetchProfile(ctx)
	}
	return nil, fmt.Errorf("a profile is required (-profile or a backend URL)")
}

// loadResume is optional: a run without a resume still fills fields.
func loadResume(ctx context.Context, config *CLIConfig, client *backend.Client) (*resume.File, error) {
	var (
		cv  *resume.File
		err error
	)
	switch {
	case config.ResumePath != "":
		cv, err = resume.Read(config.ResumePath)
	case config.BackendURL != "":
		cv, err = client.FetchResume(ctx)
		if err != nil {
			// Resume is best effort when it comes from the service.
			log.Printf("No resume available from backend: %v", err)
			return nil, nil
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pages, err := cv.Validate()
	if err != nil {
		return nil, fmt.Errorf("resume validation: %w", err)
	}
	if pages > 0 {
		log.Printf("Resume: %s (%d pages)", cv.Name, pages)
	}
	return cv, nil
}

func pickAdapter(registry *adapters.Registry, config *CLIConfig) (adapters.Adapter, error) {
	if config.AdapterName != "" {
		adapter, ok := registry.ByName(config.AdapterName)
		if !ok {
			return adapters.Adapter{}, fmt.Errorf("unknown adapter %q", config.AdapterName)
		}
		return adapter, nil
	}
	return registry.Lookup(config.URL), nil
}

// answerProvider wires the LLM fallback only when a key is configured.
func answerProvider(prof *profile.Profile, logger *logging.Logger) autofill.AnswerProvider {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil
	}
	provider, err := answers.NewProvider("",
		answers.WithCandidateSummary(prof.Summary()),
		answers.WithLogger(logger),
	)
	if err != nil {
		log.Printf("Answer fallback disabled: %v", err)
		return nil
	}
	return provider
}

// runDry fetches the posting HTML, runs the engine against an
// in-memory tree, and reports what would be filled.
func runDry(ctx context.Context, config *CLIConfig, client *backend.Client, plan autofill.Plan, opts []autofill.Option) error {
	html, err := client.FetchPage(ctx, config.URL)
	if err != nil {
		return err
	}
	printPosting(jobpost.Extract(html))

	doc, err := memdom.Parse(html)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	res, runErr := execute(ctx, config, doc, plan, opts)
	if res != nil {
		fmt.Printf("\nDry run: %d field(s) would be filled across %d step(s)\n", res.TotalFilled, res.StepsCompleted)
		for _, rec := range res.Records {
			marker := "ok"
			if !rec.OK {
				marker = "skipped"
			}
			fmt.Printf("  %-28s %s\n", rec.DescriptorKey, marker)
		}
		if err := writeSummary(config.OutputFile, res); err != nil {
			return err
		}
	}
	return runErr
}

// runLive drives a real browser session.
func runLive(ctx context.Context, config *CLIConfig, plan autofill.Plan, opts []autofill.Option, logger *logging.Logger) error {
	browser, err := pwdom.Launch(config.Headless, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	doc, err := browser.Open(config.URL)
	if err != nil {
		return err
	}
	if content, cerr := browser.Page().Content(); cerr == nil {
		printPosting(jobpost.Extract(content))
	}

	res, runErr := execute(ctx, config, doc, plan, opts)
	if res != nil {
		if err := writeSummary(config.OutputFile, res); err != nil {
			return err
		}
	}
	return runErr
}

// execute runs the orchestrator with the chosen status consumer and
// handles the submit confirmation hand-off.
func execute(ctx context.Context, config *CLIConfig, doc dom.Document, plan autofill.Plan, opts []autofill.Option) (*autofill.RunResult, error) {
	var (
		res *autofill.RunResult
		err error
		o   *autofill.Orchestrator
	)

	if config.Watch {
		res, o, err = runWatched(ctx, doc, plan, opts)
	} else {
		opts = append(opts, autofill.WithStatus(printStatus))
		o = autofill.New(doc, plan, opts...)
		res, err = o.Run(ctx)
	}
	if err != nil {
		return res, err
	}

	if res.AwaitingSubmit {
		if !config.Confirm {
			fmt.Println("\nApplication is filled and awaiting submission. Re-run with -confirm to submit.")
			return res, nil
		}
		if promptYesNo("Submit the application now? [y/N]: ") {
			if err := o.ConfirmSubmit(ctx); err != nil {
				return res, err
			}
			fmt.Println("Application submitted.")
		} else {
			fmt.Println("Submission skipped.")
		}
	}
	return res, nil
}

func promptYesNo(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printPosting(p jobpost.Posting) {
	if p.Title == "" && p.Company == "" {
		return
	}
	fmt.Println(postingLine(p))
}

// runSummary is the JSON shape written to -output.
type runSummary struct {
	State          string       `json:"state"`
	StepsCompleted int          `json:"steps_completed"`
	TotalFilled    int          `json:"total_filled"`
	AwaitingSubmit bool         `json:"awaiting_submit"`
	Aborted        bool         `json:"aborted"`
	Records        []fillRecord `json:"records,omitempty"`
}

type fillRecord struct {
	Control string `json:"control"`
	Field   string `json:"field"`
	OK      bool   `json:"ok"`
}

func writeSummary(path string, res *autofill.RunResult) error {
	if path == "" {
		return nil
	}
	summary := runSummary{
		State:          res.State.String(),
		StepsCompleted: res.StepsCompleted,
		TotalFilled:    res.TotalFilled,
		AwaitingSubmit: res.AwaitingSubmit,
		Aborted:        res.Aborted,
	}
	for _, rec := range res.Records {
		summary.Records = append(summary.Records, fillRecord{
			Control: rec.ControlKey,
			Field:   rec.DescriptorKey,
			OK:      rec.OK,
		})
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
