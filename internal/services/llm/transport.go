package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type replyMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type chatChoice struct {
	Message replyMessage `json:"message"`
	// Some OpenAI-compatible gateways answer with the streaming shape.
	Delta        replyMessage `json:"delta"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type reply struct {
	text         string
	finishReason string
	refusal      string
}

// firstReply returns the first non-empty text across the choices, falling
// back to the finish reason and refusal of the first choice.
func (r chatResponse) firstReply() reply {
	var out reply
	for i, choice := range r.Choices {
		if i == 0 {
			out.finishReason = strings.TrimSpace(choice.FinishReason)
			out.refusal = strings.TrimSpace(choice.Message.Refusal + choice.Delta.Refusal)
		}
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text := strings.TrimSpace(candidate); text != "" {
				out.text = text
				return out
			}
		}
	}
	return out
}

type statusError struct {
	code       int
	body       string
	retryAfter retryAfter
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.code, snippet(e.body))
}

type emptyReplyError struct {
	op           string
	finishReason string
	refusal      string
	body         string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finishReason, e.refusal, e.body)
}

func (c *Client) post(ctx context.Context, payload chatRequest) (chatResponse, []byte, error) {
	var resp chatResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return resp, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return resp, nil, fmt.Errorf("llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	// OpenRouter attribution headers; other providers ignore them.
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return resp, nil, fmt.Errorf("llm request (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return resp, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if httpResp.StatusCode >= http.StatusMultipleChoices {
		return resp, body, &statusError{
			code:       httpResp.StatusCode,
			body:       string(body),
			retryAfter: parseRetryAfter(httpResp.Header.Get("Retry-After")),
		}
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, body, fmt.Errorf("llm request: decode response %s: %w", snippet(string(body)), err)
	}
	if resp.Error != nil {
		return resp, body, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(resp.Error.Message))
	}
	return resp, body, nil
}

// StripCodeFence removes a surrounding markdown code fence, including an
// optional language tag, from a model reply.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	body, ok := strings.CutPrefix(trimmed, "```")
	if !ok {
		return trimmed
	}
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[:") {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > 160 {
		clean = string(runes[:160]) + "..."
	}
	return clean
}
