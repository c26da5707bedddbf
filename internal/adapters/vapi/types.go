package vapi

// CreateAssistantRequest represents the payload to provision an assistant
type CreateAssistantRequest struct {
	Name         string                 `json:"name"`
	FirstMessage string                 `json:"firstMessage,omitempty"`
	Model        AssistantModel         `json:"model"`
	Voice        AssistantVoice         `json:"voice"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// AssistantModel configures the assistant's language model
type AssistantModel struct {
	Provider      string             `json:"provider"`
	Model         string             `json:"model"`
	SystemPrompt  string             `json:"systemPrompt,omitempty"`
	Messages      []AssistantMessage `json:"messages,omitempty"`
	ToolIDs       []string           `json:"toolIds,omitempty"`
	Temperature   float64            `json:"temperature,omitempty"`
	MaxTokens     int                `json:"maxTokens,omitempty"`
}

// AssistantMessage is one system/user message in the assistant prompt
type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantVoice configures the assistant's speech synthesis
type AssistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// AssistantResponse represents a provisioned assistant
type AssistantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CreatePhoneNumberRequest represents the payload to provision a phone number
type CreatePhoneNumberRequest struct {
	Provider      string `json:"provider"`
	AreaCode      string `json:"areaCode,omitempty"`
	Number        string `json:"number,omitempty"`
	TwilioSID     string `json:"twilioAccountSid,omitempty"`
	TwilioToken   string `json:"twilioAuthToken,omitempty"`
	AssistantID   string `json:"assistantId,omitempty"`
	Name          string `json:"name,omitempty"`
}

// PhoneNumberResponse represents a provisioned phone number
type PhoneNumberResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// CreateCallRequest represents the payload to initiate an outbound call
type CreateCallRequest struct {
	AssistantID   string                 `json:"assistantId"`
	PhoneNumberID string                 `json:"phoneNumberId"`
	Customer      CallCustomer           `json:"customer"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// CallCustomer identifies the callee
type CallCustomer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// CallResponse represents an initiated call
type CallResponse struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// CreateToolRequest represents the payload to register a tool
type CreateToolRequest struct {
	Type     string                 `json:"type"`
	Function map[string]interface{} `json:"function,omitempty"`
	Server   map[string]interface{} `json:"server,omitempty"`
}

// ToolResponse represents a registered tool
type ToolResponse struct {
	ID string `json:"id"`
}

// CreateCredentialRequest represents the payload to register a credential
type CreateCredentialRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// CredentialResponse represents a registered credential
type CredentialResponse struct {
	ID string `json:"id"`
}
