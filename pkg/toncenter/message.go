package toncenter

import (
	"encoding/base64"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// OpcodeTextComment marks a plain transfer carrying a text comment.
const OpcodeTextComment Opcode = 0

// BodyCell decodes the base64 BOC message body.
func (m Message) BodyCell() (*cell.Cell, error) {
	if m.MessageContent == nil || m.MessageContent.Body == "" {
		return nil, fmt.Errorf("message %s has no body", m.Hash)
	}
	boc, err := base64.StdEncoding.DecodeString(m.MessageContent.Body)
	if err != nil {
		return nil, fmt.Errorf("decode body base64: %w", err)
	}
	c, err := cell.FromBOC(boc)
	if err != nil {
		return nil, fmt.Errorf("parse body boc: %w", err)
	}
	return c, nil
}

// Comment returns the text comment of a simple transfer. ok is false when the
// body is empty or carries a non-zero opcode.
func (m Message) Comment() (comment string, ok bool) {
	if m.MessageContent != nil && m.MessageContent.Decoded != nil && m.MessageContent.Decoded.Type == "text_comment" {
		return m.MessageContent.Decoded.Comment, true
	}

	body, err := m.BodyCell()
	if err != nil {
		return "", false
	}
	slice := body.BeginParse()
	if slice.BitsLeft() < 32 {
		return "", false
	}
	opcode, err := slice.LoadUInt(32)
	if err != nil || Opcode(opcode) != OpcodeTextComment {
		return "", false
	}
	text, err := slice.LoadStringSnake()
	if err != nil {
		return "", false
	}
	return text, true
}
