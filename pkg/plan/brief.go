package plan

import (
	"fmt"
	"strings"

	"appforge/pkg/domain"
	"appforge/pkg/utils"
)

// BriefTokenBudget caps the rendered generation brief. Plans for
// large models are truncated file-by-file rather than mid-line.
const BriefTokenBudget = 6000

// RenderBrief renders the plan and domain model into the prompt body
// given to the executor. The output is deterministic for a given plan.
func RenderBrief(p *Plan, model *domain.Model, intent string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Application: %s (%s)\n", p.AppName, p.Archetype)
	if intent != "" {
		fmt.Fprintf(&b, "Intent: %s\n", intent)
	}
	if len(model.TechStack) > 0 {
		fmt.Fprintf(&b, "Tech stack: %s\n", strings.Join(model.TechStack, ", "))
	}
	if model.AuthRequired {
		b.WriteString("Authentication is required; protect non-public routes.\n")
	}

	if len(model.Entities) > 0 {
		b.WriteString("\nEntities:\n")
		for i := range model.Entities {
			entity := &model.Entities[i]
			var fields []string
			for j := range entity.Fields {
				fields = append(fields, entity.Fields[j].Name+" ("+entity.Fields[j].Type+")")
			}
			fmt.Fprintf(&b, "- %s: %s\n", entity.Name, strings.Join(fields, ", "))
		}
	}

	b.WriteString("\nGenerate exactly these files, in order:\n")
	counter, _ := utils.NewTokenCounter() // nil counter falls back to estimation
	used := counter.CountTokens(b.String())
	truncated := 0
	for i := range p.Files {
		file := &p.Files[i]
		line := fmt.Sprintf("%d. %s: %s\n", i+1, file.Path, file.Purpose)
		if len(file.Requires) > 0 {
			line += fmt.Sprintf("   Uses: %s\n", strings.Join(file.Requires, ", "))
		}
		cost := counter.CountTokens(line)
		if used+cost > BriefTokenBudget {
			truncated = len(p.Files) - i
			break
		}
		b.WriteString(line)
		used += cost
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "... plus %d more files; list them with list_files before finishing.\n", truncated)
	}

	if len(p.Unresolved) > 0 {
		fmt.Fprintf(&b, "\nUnresolved capabilities (stub or inline them): %s\n", strings.Join(p.Unresolved, ", "))
	}
	return b.String()
}
