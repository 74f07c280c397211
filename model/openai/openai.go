// Package openai adapts the OpenAI Chat Completions API (streaming, with
// function/tool calling) to the generic model.Client interface. Conversation
// history is translated to the SDK's message format; streamed chunk deltas
// are forwarded as fragments without any local reassembly - reconstructing
// complete tool calls from partial data is the engine's concern.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/djdjm-value-shore/smoothoperatormini/core"
	"github.com/djdjm-value-shore/smoothoperatormini/model"
)

// Options configure the OpenAI client adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// APIKey overrides the environment credential. Sessions carry
	// user-supplied keys, so a fresh adapter is built per turn.
	APIKey string
}

// Client wraps the OpenAI Chat Completions API behind model.Client.
type Client struct {
	sdk  *openai.Client
	opts Options
}

// NewClient creates an adapter using the official SDK client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	sdk := openai.NewClient(clientOpts...)

	return &Client{sdk: &sdk, opts: opts}
}

// NewClientFromSDK creates an adapter from an existing SDK client.
func NewClientFromSDK(sdk *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{sdk: sdk, opts: opts}
}

// Stream implements model.Client.
func (c *Client) Stream(ctx context.Context, req model.Request) (<-chan model.Fragment, <-chan error) {
	out := make(chan model.Fragment, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)

		params := c.buildParams(req)
		stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content != "" {
					out <- model.TextFragment{Text: ch.Delta.Content}
				}
				for _, tc := range ch.Delta.ToolCalls {
					out <- model.ToolCallFragment{
						Index:     tc.Index,
						ID:        tc.ID,
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
		}
	}()
	return out, errCh
}

// buildParams assembles the chat completion request: instructions as the
// leading system message, then the history, then tool definitions.
func (c *Client) buildParams(req model.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, msg := range req.History {
		messages = append(messages, convertMessage(msg)...)
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Function.Name,
					Description: openai.String(tdef.Function.Description),
					Parameters:  tdef.Function.Parameters,
				},
			}
		}
		params.Tools = tools
	}
	return params
}

// convertMessage maps one history entry onto provider messages. Tool-role
// entries keep their call identifier; dropping it would corrupt the
// provider's message-threading contract.
func convertMessage(msg core.Message) []openai.ChatCompletionMessageParamUnion {
	switch msg.Role {
	case core.RoleSystem:
		return []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(msg.Content)}
	case core.RoleUser:
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(msg.Content)}
	case core.RoleTool:
		return []openai.ChatCompletionMessageParamUnion{openai.ToolMessage(msg.Content, msg.ToolCallID)}
	case core.RoleAssistant:
		if len(msg.ToolCalls) == 0 {
			return []openai.ChatCompletionMessageParamUnion{openai.AssistantMessage(msg.Content)}
		}
		toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
		for i, call := range msg.ToolCalls {
			toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
				ID:   call.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			}
		}
		assistant := openai.ChatCompletionAssistantMessageParam{
			Role:      "assistant",
			ToolCalls: toolCalls,
		}
		if msg.Content != "" {
			assistant.Content.OfString = openai.String(msg.Content)
		}
		return []openai.ChatCompletionMessageParamUnion{{OfAssistant: &assistant}}
	default:
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(msg.Content)}
	}
}
