package docgen

import (
	"fmt"
	"strings"
	"text/template"
)

// Supported documentation types.
const (
	DocReadme       = "readme"
	DocAPI          = "api"
	DocOnboarding   = "onboarding"
	DocChangelog    = "changelog"
	DocArchitecture = "architecture"
)

// DocTypes lists the supported documentation types.
func DocTypes() []string {
	return []string{DocReadme, DocAPI, DocOnboarding, DocChangelog, DocArchitecture}
}

// outputFilenames maps a doc type to its default output file.
var outputFilenames = map[string]string{
	DocReadme:       "README.md",
	DocAPI:          "API.md",
	DocOnboarding:   "ONBOARDING.md",
	DocChangelog:    "CHANGELOG.md",
	DocArchitecture: "ARCHITECTURE.md",
}

// promptContext carries everything a prompt template can reference.
type promptContext struct {
	ProjectName       string
	ProjectRoot       string
	PrimaryLanguage   string
	FileCount         int
	CodebaseStructure string
	KeyComponents     string
	SampleCode        string
	RecentChanges     string
	ExistingDoc       string
}

var promptTemplates = map[string]*template.Template{
	DocReadme: mustTemplate(DocReadme, `You are a technical documentation expert. Generate a comprehensive README.md file for this codebase.

# Context
Project: {{.ProjectName}}
Project Root: {{.ProjectRoot}}
Primary Language: {{.PrimaryLanguage}}
Total Files: {{.FileCount}}

# Codebase Structure
{{.CodebaseStructure}}

# Key Components
{{.KeyComponents}}

# Sample Code
{{.SampleCode}}

# Instructions
Generate a professional README.md with the following sections:

1. **Project Title and Description**: a clear title and 2-3 sentence description
2. **Features**: 5-7 key features based on the code analysis
3. **Installation**: installation instructions appropriate for the language
4. **Usage**: basic usage examples with code snippets from the actual codebase
5. **Project Structure**: the directory structure and main components
6. **Configuration**: configuration files or environment variables
7. **API/Core Functions**: main functions, classes, or APIs
8. **Contributing**: standard contributing guidelines
9. **License**: placeholder for license information

Format in clean Markdown. Be specific and grounded in the actual code provided. Do NOT make up features or capabilities not present in the code.`),

	DocAPI: mustTemplate(DocAPI, `You are a technical documentation expert specializing in API documentation. Generate comprehensive API documentation for this codebase.

# Context
Project: {{.ProjectName}}
Primary Language: {{.PrimaryLanguage}}

# Key Components
{{.KeyComponents}}

# Sample Implementation
{{.SampleCode}}

# Instructions
Generate professional API documentation with the following structure:

1. **API Overview**: brief introduction to the API and its purpose
2. **Entry Points**: main entry points
3. **Endpoints/Functions**: for each public function or method, document the
   signature, purpose, parameters, return value, example usage, and error handling
4. **Data Models**: key classes, structs, or data models
5. **Error Codes**: common errors and their meanings
6. **Examples**: complete working examples

Format as clean Markdown with code blocks. Be precise and use only information present in the provided code.`),

	DocOnboarding: mustTemplate(DocOnboarding, `You are a developer onboarding specialist. Create a comprehensive onboarding guide for new developers joining this project.

# Context
Project: {{.ProjectName}}
Primary Language: {{.PrimaryLanguage}}
Total Files: {{.FileCount}}

# Codebase Overview
{{.CodebaseStructure}}

# Key Components
{{.KeyComponents}}

# Instructions
Create an onboarding guide with the following sections:

1. **Welcome**: brief welcome message and project overview
2. **Prerequisites**: required knowledge and tools
3. **Development Environment Setup**: step-by-step setup and verification
4. **Codebase Tour**: project structure, key directories, main entry points
5. **Development Workflow**: running locally, running tests, conventions
6. **First Tasks**: suggested starter tasks for new developers
7. **Key Concepts**: important patterns and architecture decisions
8. **Troubleshooting**: common issues and solutions

Format as a step-by-step Markdown guide. Use actual file paths and code examples from the codebase.`),

	DocChangelog: mustTemplate(DocChangelog, `You are a documentation expert. Generate a CHANGELOG.md file based on recent code changes.

# Context
Project: {{.ProjectName}}

# Recent Changes
{{.RecentChanges}}

# Instructions
Generate a CHANGELOG.md following the "Keep a Changelog" format (https://keepachangelog.com/):

Group changes into categories:
- **Added**: new features
- **Changed**: changes to existing functionality
- **Removed**: removed features
- **Fixed**: bug fixes

Base the changelog ONLY on the actual changes provided. Be specific and concise.`),

	DocArchitecture: mustTemplate(DocArchitecture, `You are a software architect. Create comprehensive architecture documentation for this codebase.

# Context
Project: {{.ProjectName}}
Primary Language: {{.PrimaryLanguage}}

# Codebase Structure
{{.CodebaseStructure}}

# Components
{{.KeyComponents}}

# Sample Code
{{.SampleCode}}

# Instructions
Generate architecture documentation with:

1. **System Overview**: high-level description of the system
2. **Architecture Diagram**: major components and their relationships (text or Mermaid)
3. **Component Breakdown**: purpose, responsibilities, dependencies, key files
4. **Data Flow**: how data flows through the system
5. **Key Design Decisions**: important architectural decisions
6. **External Dependencies**: third-party libraries and services
7. **Future Considerations**: areas for improvement or expansion

Use Mermaid diagrams where appropriate. Be specific and grounded in the actual code.`),
}

// updateAddendum is appended to a base template when regenerating an
// existing document after code changes.
const updateAddendum = `

# Update Context
The codebase has changed. Here are the changes:
{{.RecentChanges}}

Previous documentation:
{{.ExistingDoc}}

Please update the documentation to reflect these changes while preserving the overall structure and style.`

var updateTemplates = buildUpdateTemplates()

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

func buildUpdateTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(promptTemplates))
	for docType, tmpl := range promptTemplates {
		base := tmpl.Root.String()
		out[docType] = mustTemplate(docType+"-update", base+updateAddendum)
	}
	return out
}

// renderPrompt executes a template against the context.
func renderPrompt(tmpl *template.Template, pc promptContext) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, pc); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
