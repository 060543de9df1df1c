package engine

import (
	"bytes"
	"fmt"

	"github.com/snazari/axon/internal/tool"
)

func renderToolCatalog(specs []tool.Spec) string {
	if len(specs) == 0 {
		return "(no tools available)"
	}
	buf := &bytes.Buffer{}
	for _, s := range specs {
		fmt.Fprintf(buf, "- %s: %s\n", s.Name, s.Description)
		if len(s.InputSchema.Properties) > 0 {
			fmt.Fprintf(buf, "  parameters:")
			for name, prop := range s.InputSchema.Properties {
				fmt.Fprintf(buf, " %s(%s)", name, prop.Type)
			}
			fmt.Fprintln(buf)
		}
	}
	return buf.String()
}

func thoughtPrompt(query string, specs []tool.Spec) string {
	return fmt.Sprintf(`You are reasoning about how to approach a task before planning it.
TASK: %s
AVAILABLE TOOLS:
%s
Think through the approach. Return ONLY strict JSON:
{"reasoning": string, "considerations": [string], "assumptions": [string]}`, query, renderToolCatalog(specs))
}

func planPrompt(query string, thought *Thought, specs []tool.Spec) string {
	reasoning := ""
	if thought != nil {
		reasoning = thought.Reasoning
	}
	return fmt.Sprintf(`You are planning concrete steps to accomplish a task.
TASK: %s
PRIOR REASONING: %s
AVAILABLE TOOLS (only these may be used; steps without a tool are manual):
%s
Rules:
- "order" values are unique positive integers.
- "dependencies" lists the order values of steps that must complete first.
- Bind a tool only when one of the available tools fits; set its parameters.
Return ONLY strict JSON:
{"steps": [{"order": number, "description": string, "tool": string or omitted, "parameters": object or omitted, "dependencies": [number]}],
 "required_tools": [string], "confidence": number 0..1, "reasoning": string}`, query, reasoning, renderToolCatalog(specs))
}

func reflectionPrompt(query string, plan *Plan, execution *Execution) string {
	buf := &bytes.Buffer{}
	for i, es := range execution.Steps {
		desc := ""
		if i < len(plan.Steps) {
			desc = plan.Steps[i].Description
		}
		fmt.Fprintf(buf, "- step %q (%s): %s", es.PlanStepID, desc, es.Status)
		if es.Error != "" {
			fmt.Fprintf(buf, " error: %s", es.Error)
		}
		fmt.Fprintln(buf)
	}
	return fmt.Sprintf(`You are judging whether an executed plan achieved its goal.
GOAL: %s
EXECUTION STATUS: %s
STEPS:
%s
Return ONLY strict JSON:
{"success": bool, "analysis": string, "issues": [string], "improvements": [string], "should_iterate": bool, "next_steps": [string]}`,
		query, execution.Status, buf.String())
}

func askPrompt(query string) string {
	return fmt.Sprintf(`Answer the user's question directly and concisely.
QUESTION: %s`, query)
}
