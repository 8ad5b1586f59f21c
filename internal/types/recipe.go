package types

// Recipe is a single generated recipe as returned by the model
type Recipe struct {
	Name             string   `json:"name" description:"Name of the recipe"`
	Ingredients      []string `json:"ingredients" description:"List of ingredients for the recipe; extra ingredients not in the user's list are marked inline, e.g. 'garlic (extra)'"`
	ShortDescription string   `json:"short_description" description:"Short description of the recipe"`
	FullRecipe       string   `json:"full_recipe" description:"Full recipe instructions"`
	CookingTime      string   `json:"cooking_time" description:"Cooking time for the recipe"`
}

// RecipeList is the structured output of the recipe generation call
type RecipeList struct {
	Recipes []Recipe `json:"recipes" description:"List of recipes returned by the assistant"`
}

// IngredientList is the structured output of the extraction and cleaning calls
type IngredientList struct {
	Ingredients []string `json:"ingredients" description:"List of food ingredients, lowercase and trimmed"`
}

// RecipeWithImage is a recipe enriched with the local path of its generated image.
// ImagePath is empty when image generation failed for this recipe.
type RecipeWithImage struct {
	Recipe
	ImagePath  string
	ImageError error
}

// RecipeResponse is the wire form of a recipe with its image inlined as base64
type RecipeResponse struct {
	Name             string   `json:"name"`
	ImageBase64      string   `json:"image_base64"`
	Ingredients      []string `json:"ingredients"`
	ShortDescription string   `json:"short_description"`
	FullRecipe       string   `json:"full_recipe"`
	CookingTime      string   `json:"cooking_time"`
}

// NewRecipeResponse builds the wire form of r with the given encoded image
func NewRecipeResponse(r Recipe, imageBase64 string) RecipeResponse {
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return RecipeResponse{
		Name:             r.Name,
		ImageBase64:      imageBase64,
		Ingredients:      ingredients,
		ShortDescription: r.ShortDescription,
		FullRecipe:       r.FullRecipe,
		CookingTime:      r.CookingTime,
	}
}
