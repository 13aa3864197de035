package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/backend"
	"github.com/ag0os/orchestra/internal/config"
)

var (
	doctorFormat string
	doctorCheck  string
)

// CheckResult represents the result of a single diagnostic check.
type CheckResult struct {
	Name        string   `json:"name"`
	Status      string   `json:"status"` // "pass", "warn", "fail"
	Details     []string `json:"details"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// DoctorReport contains all check results and a summary.
type DoctorReport struct {
	Checks  []CheckResult `json:"checks"`
	Summary struct {
		Passed   int `json:"passed"`
		Warnings int `json:"warnings"`
		Failed   int `json:"failed"`
	} `json:"summary"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and backend availability",
	Long: `Run diagnostic checks to identify configuration issues and
missing agent CLIs.

Checks performed:
- Config: validates the app config files
- Backends: verifies which registered agent CLIs are installed
- Chains: locates and validates the chain document`,
	Example: `  # Run all checks
  orchestra doctor

  # Output as JSON
  orchestra doctor --format json

  # Check only backends
  orchestra doctor --check backends`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := DoctorReport{}

		checks := []func() CheckResult{checkConfig, checkBackends, checkChains}
		switch doctorCheck {
		case "":
		case "config":
			checks = []func() CheckResult{checkConfig}
		case "backends":
			checks = []func() CheckResult{checkBackends}
		case "chains":
			checks = []func() CheckResult{checkChains}
		default:
			return fmt.Errorf("unknown check: %s (valid: config, backends, chains)", doctorCheck)
		}

		for _, check := range checks {
			result := check()
			report.Checks = append(report.Checks, result)
			switch result.Status {
			case "pass":
				report.Summary.Passed++
			case "warn":
				report.Summary.Warnings++
			case "fail":
				report.Summary.Failed++
			}
		}

		if doctorFormat == "json" {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		} else {
			printReport(report)
		}

		if report.Summary.Failed > 0 {
			return fmt.Errorf("%d check(s) failed", report.Summary.Failed)
		}
		return nil
	},
}

func checkConfig() CheckResult {
	result := CheckResult{Name: "config", Status: "pass"}

	cfg, err := config.Load()
	if err != nil {
		result.Status = "fail"
		result.Details = append(result.Details, fmt.Sprintf("config load failed: %v", err))
		return result
	}

	result.Details = append(result.Details,
		fmt.Sprintf("default backend: %s", cfg.ResolveBackend("", backendFlag)),
		fmt.Sprintf("default iterations: %d", cfg.Iterations))
	if cfg.Model != "" {
		result.Details = append(result.Details, fmt.Sprintf("default model: %s", cfg.Model))
	}
	return result
}

func checkBackends() CheckResult {
	result := CheckResult{Name: "backends", Status: "pass"}

	anyAvailable := false
	for _, name := range backend.Names() {
		b, err := backend.Lookup(name)
		if err != nil {
			result.Status = "fail"
			result.Details = append(result.Details, err.Error())
			continue
		}
		if b.IsAvailable() {
			anyAvailable = true
			result.Details = append(result.Details, fmt.Sprintf("%s: available", name))
		} else {
			result.Details = append(result.Details, fmt.Sprintf("%s: not found", name))
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("install the %s CLI or set ORCHESTRA_%s_BIN", name, strings.ToUpper(name)))
		}
	}
	if !anyAvailable {
		result.Status = "fail"
		result.Suggestions = append(result.Suggestions, "at least one agent CLI is required")
	}
	return result
}

func checkChains() CheckResult {
	result := CheckResult{Name: "chains", Status: "pass"}

	workDir, err := os.Getwd()
	if err != nil {
		result.Status = "fail"
		result.Details = append(result.Details, err.Error())
		return result
	}

	chainCfg, err := config.LoadChainConfig(workDir)
	if err != nil {
		result.Status = "fail"
		result.Details = append(result.Details, fmt.Sprintf("chain document invalid: %v", err))
		return result
	}
	if chainCfg == nil {
		result.Status = "warn"
		result.Details = append(result.Details, "no chain document found")
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("create %s to define chains", config.ChainDocPath))
		return result
	}

	result.Details = append(result.Details,
		fmt.Sprintf("%d chain(s), %d agent(s)", len(chainCfg.Chains), len(chainCfg.Agents)))
	return result
}

func printReport(report DoctorReport) {
	pass := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	for _, check := range report.Checks {
		switch check.Status {
		case "pass":
			pass.Printf("✓ %s\n", check.Name)
		case "warn":
			warn.Printf("! %s\n", check.Name)
		default:
			fail.Printf("✗ %s\n", check.Name)
		}
		for _, d := range check.Details {
			fmt.Printf("    %s\n", d)
		}
		for _, s := range check.Suggestions {
			fmt.Printf("    → %s\n", s)
		}
	}
	fmt.Printf("\n%d passed, %d warnings, %d failed\n",
		report.Summary.Passed, report.Summary.Warnings, report.Summary.Failed)
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "", "Output format: json or text (default)")
	doctorCmd.Flags().StringVar(&doctorCheck, "check", "", "Run only one check: config, backends, or chains")
}
