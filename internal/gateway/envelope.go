package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
)

// 成功として扱うエンベロープのコード。
const (
	CodeOK     = 0
	CodeHTTPOK = 200
)

// Request はGatewayに渡す送信リクエストの記述。
// PathはベースURLからの相対パス、Bodyは非nilの場合JSONとして送信される。
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Envelope はバックエンドの統一レスポンス形式 {code, message, data}。
// Codeはcodeが整数の場合のみ設定される。
// codeが存在するが整数でない場合(文字列、null、小数)はCodeがnilのまま失敗として扱う。
type Envelope struct {
	Code    *int            `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`

	// codeキーがレスポンスに含まれていたか
	hasCode bool
}

// Succeeded はエンベロープが成功を表すかを返す。codeが無い場合も成功とみなす。
func (e *Envelope) Succeeded() bool {
	if e.Code == nil {
		return !e.hasCode
	}
	return *e.Code == CodeOK || *e.Code == CodeHTTPOK
}

// Decode はdataフィールドをvにデコードする。dataが無いかnullの場合はvを変更しない。
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 || bytes.Equal(bytes.TrimSpace(e.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("レスポンスデータのデコードに失敗しました: %w", err)
	}
	return nil
}

// Decode はエンベロープのdataを型Tとしてデコードして返す。
func Decode[T any](env *Envelope) (T, error) {
	var v T
	if env == nil {
		return v, nil
	}
	err := env.Decode(&v)
	return v, err
}

// parseEnvelope はレスポンスボディをエンベロープとして解釈する。
// JSONオブジェクトでないボディはcodeなしのエンベロープとして扱い、dataにボディをそのまま格納する。
// 各フィールドは個別に読み取るため、型が想定と異なるフィールドがあっても他のフィールドは失われない。
func parseEnvelope(body []byte) *Envelope {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return &Envelope{Data: json.RawMessage(body)}
	}

	env := &Envelope{Data: fields["data"]}
	if raw, ok := fields["code"]; ok {
		env.hasCode = true
		var code int
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) && json.Unmarshal(raw, &code) == nil {
			env.Code = &code
		}
	}
	if raw, ok := fields["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			env.Message = msg
		}
	}
	return env
}
