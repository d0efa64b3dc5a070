//go:build ignore

// build.go - Data Explorer build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, explorer, cli, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version    = "0.1.0"
	versionVar = "dataexplorer/internal/app"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Race    bool
	OS      string
	Arch    string
}

var (
	rootDir string
	distDir string

	// key = cmd directory, value = output binary name
	executables = map[string]string{
		"explorer":     "explorer",
		"explorer-cli": "explorer-cli",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s. Run the build from the repository root.", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	race := flag.Bool("race", false, "Run tests with the race detector")
	goos := flag.String("os", runtime.GOOS, "Target GOOS")
	goarch := flag.String("arch", runtime.GOARCH, "Target GOARCH")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{
		Verbose: *verbose,
		Race:    *race,
		OS:      *goos,
		Arch:    *goarch,
	}

	switch *target {
	case "all":
		buildAll(ctx)
	case "explorer":
		prepareDirectories(ctx.Verbose)
		buildExecutable("explorer", ctx)
	case "cli", "explorer-cli":
		prepareDirectories(ctx.Verbose)
		buildExecutable("explorer-cli", ctx)
	case "test":
		runTests(ctx)
	case "clean":
		clean(ctx.Verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        Data Explorer - Build System       " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all binaries...")

	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}
	prepareDirectories(ctx.Verbose)

	for name := range executables {
		buildExecutable(name, ctx)
	}
	printSuccess("All binaries built successfully!")
}

func buildExecutable(name string, ctx *BuildContext) {
	binName, ok := executables[name]
	if !ok {
		printError(fmt.Sprintf("Unknown executable: %s", name))
		os.Exit(1)
	}
	if ctx.OS == "windows" {
		binName += ".exe"
	}

	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, ctx.OS, ctx.Arch))

	outputPath := filepath.Join(distDir, binName)
	ldflags := fmt.Sprintf("-s -w -X %s.Version=%s -X %s.BuildTime=%s",
		versionVar, version, versionVar, time.Now().UTC().Format(time.RFC3339))

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+ctx.OS, "GOARCH="+ctx.Arch, "CGO_ENABLED=0")
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", binName, sizeMB))
	}
}

func runTests(ctx *BuildContext) {
	printInfo("Running Go tests...")

	args := []string{"test"}
	if ctx.Race {
		args = append(args, "-race")
	}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean(verbose bool) {
	printInfo("Cleaning build artifacts...")

	if err := os.RemoveAll(distDir); err != nil && !os.IsNotExist(err) {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		return
	}
	if verbose {
		fmt.Printf("Removed %s\n", distDir)
	}

	// analyze writes here by default
	cliOut := filepath.Join(rootDir, "explorer-out")
	if _, err := os.Stat(cliOut); err == nil {
		printWarning(fmt.Sprintf("Leaving CLI output in %s", cliOut))
	}
	printSuccess("Build artifacts cleaned")
}

func checkPrerequisites() error {
	if err := exec.Command("go", "version").Run(); err != nil {
		return fmt.Errorf("Go is not installed or not in PATH")
	}
	for name := range executables {
		if _, err := os.Stat(filepath.Join(rootDir, "cmd", name)); os.IsNotExist(err) {
			return fmt.Errorf("cmd/%s not found", name)
		}
	}
	return nil
}

func prepareDirectories(verbose bool) {
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("Output directory: %s\n", distDir)
	}
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-race] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all               Build the server and the CLI (default)")
	fmt.Println("  explorer          Build the web server only")
	fmt.Println("  cli               Build explorer-cli only")
	fmt.Println("  test              Run all tests")
	fmt.Println("  clean             Remove build artifacts")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v                Verbose output")
	fmt.Println("  -race             Run tests with the race detector")
	fmt.Println("  -os, -arch        Cross-compile for another platform")
}
