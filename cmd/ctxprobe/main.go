// Ctxprobe CLI entry point
//
// Ctxprobe discovers the real context-window boundary of an LLM
// endpoint by probing it with synthesized payloads of exact token
// counts. It supports Anthropic, OpenAI, and Ollama endpoints.
package main

import "github.com/jbctechsolutions/ctxprobe/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
