package ai

import "fmt"

const analysisPromptTemplate = `
You are an expert financial analyst specializing in the Indian stock market. Your task is to analyze news articles and provide comprehensive sentiment analysis with specific attention to market impact.

Analyze the following news article and provide:

1. **Sentiment Score** (-1 to +1):
   - -1.0 to -0.75: Severely negative impact (major crisis, regulatory action, massive losses)
   - -0.74 to -0.50: Highly negative impact (poor earnings, scandal, significant decline)
   - -0.49 to -0.25: Moderately negative impact (disappointing results, concerns raised)
   - -0.24 to -0.01: Slightly negative impact (minor setbacks, caution advised)
   - 0.0: Neutral/No direct market impact
   - 0.01 to 0.25: Slightly positive impact (small gains, positive indicators)
   - 0.26 to 0.50: Moderately positive impact (good results, expansion plans)
   - 0.51 to 0.75: Highly positive impact (strong earnings, major deals)
   - 0.76 to 1.0: Extremely positive impact (breakthrough results, transformative events)

2. **Confidence Score** (0 to 1):
   - How confident are you in this sentiment assessment?
   - Consider: clarity of information, market context, historical patterns
   - 0.9-1.0: Very high confidence
   - 0.7-0.89: High confidence
   - 0.5-0.69: Moderate confidence
   - Below 0.5: Low confidence

3. **Explanation** (2-3 sentences):
   - Why did you assign this sentiment score?
   - What specific factors influenced your assessment?
   - How might this affect investor sentiment?

4. **Mentioned Tickers** (list of NSE symbols):
   - Extract all Indian stock symbols explicitly mentioned in the article
   - Use official NSE ticker symbols (e.g., RELIANCE, TCS, INFY, HDFCBANK)
   - Return empty list [] if no specific stocks mentioned

5. **Impact Timeline**:
   - "immediate": Impact within 1-3 trading days
   - "short-term": Impact over 1-2 weeks
   - "medium-term": Impact over 1-3 months
   - "long-term": Impact beyond 3 months

Consider these factors in your analysis:
- Investor sentiment and market psychology
- Relevant industry/sector dynamics
- Macroeconomic indicators for India
- Likely response from domestic and foreign institutional investors
- Historical market reactions to similar news
- Regulatory environment and policy implications

**Article to Analyze:**

Title: %s

Summary: %s

Full Content: %s

**IMPORTANT**: Return ONLY a valid JSON object with this exact structure (no additional text, no markdown formatting, no explanations):

{
  "sentiment": 0.0,
  "confidence": 0.0,
  "explanation": "Brief 2-3 sentence explanation here",
  "tickers": ["TICKER1", "TICKER2"],
  "impact_timeline": "immediate/short-term/medium-term/long-term"
}

Return only valid JSON. Do not include any other text before or after the JSON.
`

// BuildAnalysisPrompt renders the sentiment analysis prompt for an article.
// Content may be empty when the full text has not been fetched.
func BuildAnalysisPrompt(title, summary, content string) string {
	return fmt.Sprintf(analysisPromptTemplate, title, summary, content)
}
