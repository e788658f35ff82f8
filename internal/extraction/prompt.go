package extraction

import "fmt"

const systemPrompt = `You are an expert at extracting data from Hebrew and English documents. You reply ONLY with a valid JSON object in the requested format, with no additional text and no additional fields.`

// buildPrompt creates the user prompt for the given OCR text.
func buildPrompt(template Template, ocrText string) string {
	return fmt.Sprintf(`You are an expert at extracting information from Hebrew and English documents.
Below is the text extracted from a National Insurance Institute (ביטוח לאומי) work injury claim form.
Your task is to extract the relevant information and structure it in a precise JSON format.

This is EXACTLY the expected JSON format. Follow this structure STRICTLY without adding fields:
%s

Important:
1. Keep EXACTLY this structure without ANY modification
2. Do NOT create fields that are not in the structure
3. Make sure every field is present, even when empty
4. If no information is found for a field, leave an empty string ("")
5. For dates, extract the day/month/year components correctly
6. Do NOT add confidence scores or any other metadata to the fields

Document text:
%s

Return ONLY the JSON, without any additional text.`, template.JSON(), ocrText)
}
