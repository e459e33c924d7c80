package synthesis

import "strings"

const reflectionTemplate = `You were given the following prompt:

{full_prompt}

This was your response:

{last_response}

There was an error with the response, either in the output format or in the query itself.

Make sure the following rules hold when you correct your response:
1. The SQL is valid DuckDB SQL given the table descriptions above and DuckDB query rules.
2. The query references exactly the known tables employees and purchases, and those tables are properly aligned. This is the most likely cause of the failure.
3. The response uses the required format, either {"sql": "<sql here>"} or {"error": "<explanation here>"}, with no additional text.
4. All fields are properly named and qualified.
5. There are no unnecessary subqueries.
6. ALL TABLES are aligned in joins.

Rewrite the response and reply ONLY with valid output, without further comments.
`

// BuildReflectionPrompt asks the model to correct lastResponse. The original
// prompt and the failing response are embedded verbatim.
func BuildReflectionPrompt(original PromptContext, lastResponse string) PromptContext {
	replacer := strings.NewReplacer(
		"{full_prompt}", original.Text,
		"{last_response}", lastResponse,
	)
	return PromptContext{
		Question: original.Question,
		Text:     replacer.Replace(reflectionTemplate),
	}
}
