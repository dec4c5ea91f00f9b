package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/compasshq/compass/internal/eval"
)

const briefSystemPrompt = `You are a business communication expert who translates technical code analysis into clear summaries for Product Managers.

Your task: Create a brief 3-4 sentence summary that explains WHAT the component does and WHY it matters from a business perspective.

Rules:
- NO technical jargon (props, functions, imports, etc.)
- NO file paths or code syntax
- Focus on user-facing behavior and business value
- Use simple, conversational language
- Explain in terms a non-technical person would understand

Example:
TECHNICAL: "The PaymentButton component accepts an ` + "`amount`" + ` prop (type: number) and ` + "`onSuccess`" + ` callback..."
BRIEF: "The Payment Button allows customers to complete purchases by clicking to process their payment. It handles the payment amount and notifies the system when the transaction succeeds or fails. This component is used throughout the checkout process."

Now translate the following technical analysis into a brief business summary:`

const detailedSystemPrompt = `You are a business communication expert who translates technical code analysis into comprehensive explanations for Product Managers.

Your task: Create a detailed, business-friendly explanation that covers:
1. What the component does (user-facing functionality)
2. How it's used in the product (practical scenarios)
3. Important limitations or requirements (business constraints)
4. How it integrates with other features (business workflows)

Rules:
- Avoid technical terms like "props", "imports", "functions", "state", "hooks"
- Instead of file paths, describe WHERE in the product (e.g., "checkout flow", "user dashboard")
- Focus on business logic, user experience, and practical implications
- Use analogies when helpful
- Structure with clear sections and bullet points
- Explain in terms that enable business decisions

Example:
TECHNICAL: "Located in src/components/PaymentButton.tsx. Imports PaymentProcessor from services/..."
DETAILED: "The Payment Button is used in the checkout process to finalize customer purchases. It appears on:
- Shopping cart checkout page
- Quick buy flows
- Subscription renewal screens

When clicked, it processes the payment and shows a confirmation message. If the payment fails, it displays an error and allows the customer to try again.

Business Requirements:
- Must show the exact dollar amount before processing
- Requires a valid payment method to be selected first
- Sends confirmation emails automatically on success

This component connects with the payment processing system and customer notification features."

Now translate the following technical analysis into a detailed business explanation:`

// Translator reformats a technical analysis into brief and detailed
// business-friendly explanations for product managers.
type Translator struct {
	generator eval.Generator
}

func NewTranslator(generator eval.Generator) *Translator {
	return &Translator{generator: generator}
}

// Translate produces the brief and detailed versions of the technical
// output. The two completions run concurrently.
func (t *Translator) Translate(ctx context.Context, technical, component string) (brief, detailed string, err error) {
	if t.generator == nil {
		return "", "", errors.New("answer: translator has no generator")
	}

	user := fmt.Sprintf("Component: %s\n\nTechnical Analysis:\n%s", component, technical)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := t.generator.Generate(ctx, briefSystemPrompt, user)
		if err != nil {
			return fmt.Errorf("generate brief summary: %w", err)
		}
		brief = strings.TrimSpace(out)
		return nil
	})
	g.Go(func() error {
		out, err := t.generator.Generate(ctx, detailedSystemPrompt, user)
		if err != nil {
			return fmt.Errorf("generate detailed explanation: %w", err)
		}
		detailed = strings.TrimSpace(out)
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return brief, detailed, nil
}
