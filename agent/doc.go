// Package agent provides the conversation participant implementations:
// ModelAgent takes turns by calling an LLM backend, UserProxyAgent represents
// the driving user and executes registered tools. Both embed BaseAgent for
// identity and satisfy core.Agent.
package agent
