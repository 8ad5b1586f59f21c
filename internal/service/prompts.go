package service

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pageza/fridge2fork/backend/internal/types"
)

const extractSystemPrompt = `You look at a single photo and list the food ingredients in it.

Rules:
- List only ingredients that are clearly visible. Never add ingredients because a dish usually contains them.
- Leave out anything you are unsure about. If the photo shows no food, answer with an empty list.
- Write every ingredient in lowercase without surrounding spaces.

Example: a plate with visible tomato slices, lettuce and cheese gives ["tomato", "lettuce", "cheese"].
Counter example: a salad where no chicken can be seen must not list "chicken".`

const extractUserPrompt = `List every food ingredient visible in this photo.`

const cleanSystemPrompt = `You receive a list of strings typed by a user and keep only the real food ingredients.

Rules:
- Drop anything that is not a food item: utensils, adjectives, brands, quantities and unrelated words.
- Fix obvious misspellings of ingredient names.
- Remove duplicates, including ones that differ only in case or spacing.
- Write every ingredient in lowercase without surrounding spaces.`

const recipesSystemPrompt = `You create the requested number of recipes from a list of ingredients.

Rules:
- If the ingredients are not enough for a complete dish, add what is missing and mark each added ingredient inline with "(extra)", both in the ingredient list and in the instructions.
- If no recipe can be made, answer with an empty list.
- Make the recipes varied and use the given ingredients well.
- Allergies are strict: never use an ingredient the user is allergic to, not even as an extra.
- Never use ingredients from the avoid list.
- Every recipe must follow the requested diet.
- Lean towards the requested cuisine when there is one.`

const imagePromptTemplate = `A photo of the finished dish described below, on a white plate in the center of the frame, on a light wood table. No cutlery and no glasses.

%s`

func extractMessages(dataURL string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: extractUserPrompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	}
}

func cleanMessages(ingredients []string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: cleanSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Ingredients: " + quoteList(ingredients)},
	}
}

func recipeMessages(req *types.RecipeRequest) []openai.ChatCompletionMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Ingredients: %s\n", quoteList(req.Ingredients))
	b.WriteString("Preferences:\n")
	fmt.Fprintf(&b, "- Allergies: %s\n", listOrNone(req.Allergies))
	fmt.Fprintf(&b, "- Diet: %s\n", req.Diet)
	fmt.Fprintf(&b, "- Avoid: %s\n", listOrNone(req.Avoid))
	fmt.Fprintf(&b, "- Cuisine: %s\n", req.Cuisine)
	fmt.Fprintf(&b, "Create %d recipes from these ingredients and preferences.", req.NumRecipes)

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: recipesSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: b.String()},
	}
}

// imagePrompt describes recipe r for the image model
func imagePrompt(r types.Recipe) string {
	desc := fmt.Sprintf("%s. %s Ingredients: %s", r.Name, r.ShortDescription, strings.Join(r.Ingredients, ", "))
	return fmt.Sprintf(imagePromptTemplate, desc)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
