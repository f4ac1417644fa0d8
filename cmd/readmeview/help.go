package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: readmeview <command> [flags] [source]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render the README to an HTML page")
	fmt.Fprintln(w, "  toc        Print the README outline")
	fmt.Fprintln(w, "  serve      Host the rendered README over HTTP")
	fmt.Fprintln(w, "  export     Export the rendered README to PDF")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source is a local directory (default \".\") or an http(s) base URL.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'readmeview help <command>' for details on a specific command.")
}

func printSourceFlags(w io.Writer) {
	fmt.Fprintln(w, "Source:")
	fmt.Fprintln(w, "      --candidate <loc>     Location to try, in order (repeatable)")
	fmt.Fprintln(w, "      --fallback-file <s>   Appended to the page path after all candidates fail")
	fmt.Fprintln(w, "      --no-fallback         Skip the extra fallback attempt")
	fmt.Fprintln(w, "      --page-path <path>    Path of the hosting page (default \"/\")")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Render timeout (e.g., 15s, 1m)")
	fmt.Fprintln(w, "      --plain               Use the built-in minimal converter only")
	fmt.Fprintln(w)
}

func printPageFlags(w io.Writer) {
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "      --title <s>           Page title")
	fmt.Fprintln(w, "      --theme <s>           Theme: dark, light")
	fmt.Fprintln(w, "      --highlight-style <s> Chroma style for code blocks")
	fmt.Fprintln(w, "      --toc-title <s>       Table of contents heading")
	fmt.Fprintln(w, "      --host <s>            Page host; links elsewhere open in a new tab")
	fmt.Fprintln(w, "      --assets-dir <path>   Directory overriding styles/ and templates/")
	fmt.Fprintln(w)
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --env-file <path>     Env file with READMEVIEW_* overrides (default ./.env)")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w, "  -q, --quiet               Only log errors")
	fmt.Fprintln(w, "  -h, --help                Show this help")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: readmeview render [flags] [source]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Locate the README, convert it and write the host page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default stdout)")
	fmt.Fprintln(w, "      --fragment            Write the document HTML only, without the page")
	fmt.Fprintln(w)
	printSourceFlags(w)
	printPageFlags(w)
	printCommonFlags(w)
}

// printTocUsage prints usage for the toc command.
func printTocUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: readmeview toc [flags] [source]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the h1-h3 outline of the README with its anchor ids.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "      --json                Print the outline as JSON")
	fmt.Fprintln(w)
	printSourceFlags(w)
	printCommonFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: readmeview serve [flags] [source]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Host the page. Every request runs a fresh render pass.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Routes:")
	fmt.Fprintln(w, "  GET /             Host page (?theme=dark|light)")
	fmt.Fprintln(w, "  GET /raw          Located markdown")
	fmt.Fprintln(w, "  GET /api/render   Render result as JSON")
	fmt.Fprintln(w, "  GET /healthz      Liveness")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default 127.0.0.1:8080)")
	fmt.Fprintln(w)
	printSourceFlags(w)
	printPageFlags(w)
	printCommonFlags(w)
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: readmeview export [flags] [source]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render the page and print it to PDF with headless Chrome.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default README.pdf, \"-\" for stdout)")
	fmt.Fprintln(w, "  -p, --paper <s>           Paper size: letter, a4, legal")
	fmt.Fprintln(w, "      --landscape           Landscape orientation")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0-3)")
	fmt.Fprintln(w, "      --page-numbers        Show page numbers in the footer")
	fmt.Fprintln(w, "      --export-timeout <d>  PDF generation timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	printSourceFlags(w)
	printPageFlags(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome binary to use")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the Chrome sandbox (Docker/CI)")
}

// runHelp prints help for the named command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "toc":
		printTocUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "export":
		printExportUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: readmeview version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: readmeview help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
