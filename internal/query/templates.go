package query

import "fmt"

const usageTemplate = `Analyze the %[1]s component in the repository at %[2]s.

Find and provide:
1. File location where %[1]s is defined
2. How to import and use %[1]s
3. What parameters, props, or configuration it accepts
4. Actual code examples from the repository showing %[1]s in use
5. Common usage patterns and best practices
6. Integration steps for adding %[1]s to a new feature

Search in:
- Component definition files
- Test files (for usage examples)
- Documentation files
- Example/demo files
- Other components that use %[1]s

Be thorough and include specific code examples.`

const restrictionsTemplate = `Analyze restrictions and constraints for the %[1]s component in %[2]s.

Find and provide:
1. Input validation rules (type checking, prop validation, schema validation)
2. Documented limitations in comments, JSDoc, or documentation
3. Error handling and edge cases
4. What %[1]s CANNOT do or handle
5. Technical constraints (browser compatibility, performance limits, etc.)
6. Required conditions or prerequisites
7. Warnings or deprecated features

Search in:
- Component implementation code
- Validation logic
- Error handling code
- Comments and documentation
- Test files (especially error case tests)

Focus on identifying what users should avoid and what won't work.`

const dependenciesTemplate = `Analyze dependencies for the %[1]s component in %[2]s.

Find and provide:
1. All import statements in the component file
2. External packages required (from package.json, requirements.txt, etc.)
3. Internal dependencies (other components, utilities, services it uses)
4. Peer dependencies required by the component
5. Optional dependencies
6. System requirements or environment dependencies
7. Version constraints or compatibility requirements

Search in:
- Component source file
- Package manifest files (package.json, etc.)
- Import/require statements
- Dependency injection configurations
- Build configuration files

List all dependencies clearly with their purpose.`

const businessRulesTemplate = `Analyze business logic and rules implemented in the %[1]s component in %[2]s.

Find and provide:
1. Validation logic that enforces business rules (e.g., "amount must be positive")
2. Workflow steps or state transitions
3. Business constraints mentioned in comments or code
4. Conditional logic based on business requirements
5. Data transformation rules
6. Access control or permission rules
7. Business-specific calculations or formulas
8. Compliance or regulatory requirements

Search in:
- Validation functions
- Conditional statements with business logic
- Comments explaining business requirements
- State management code
- Event handlers with business logic
- Configuration files with business rules

Focus on identifying WHY the code does what it does from a business perspective.`

// Template renders the analyzer prompt for a query type. Unrecognized
// types fall back to the usage template.
func Template(typ Type, component, repoPath string) string {
	tmpl := usageTemplate
	switch typ {
	case TypeRestrictions:
		tmpl = restrictionsTemplate
	case TypeDependencies:
		tmpl = dependenciesTemplate
	case TypeBusinessRules:
		tmpl = businessRulesTemplate
	}
	return fmt.Sprintf(tmpl, component, repoPath)
}

// Describe returns a short human-readable summary of what a query type
// looks for.
func Describe(typ Type) string {
	switch typ {
	case TypeUsage:
		return "Find examples, parameters, and integration steps"
	case TypeRestrictions:
		return "Identify limitations, constraints, and edge cases"
	case TypeDependencies:
		return "List required packages and related components"
	case TypeBusinessRules:
		return "Explain validation logic and business workflows"
	default:
		return "General component analysis"
	}
}
