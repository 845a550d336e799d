package validator

import (
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

// ValidateChatRequest normalises the message in place and checks required fields.
// Messages longer than the configured limit are cut, not rejected.
func (v *Validator) ValidateChatRequest(req *entity.ChatRequest) error {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	req.Message = truncateRunes(req.Message, v.chatCfg.MaxMessageLength)

	if strings.TrimSpace(req.TargetID()) == "" {
		return fmt.Errorf("%w: documentOrFolderId", entity.ErrMissingField)
	}

	for i, m := range req.History {
		if !m.Role.IsValid() {
			return fmt.Errorf("%w: conversationHistory[%d].role %q", entity.ErrInvalidParameter, i, m.Role)
		}
	}

	return nil
}

// ValidateExport checks a transcript export request.
func (v *Validator) ValidateExport(req *entity.ExportChatRequest, format entity.ResultFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("%w: format %q", entity.ErrInvalidParameter, format)
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages", entity.ErrMissingField)
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
