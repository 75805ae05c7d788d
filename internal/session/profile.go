package session

// プロフィールの既知のキー。
const (
	KeyToken     = "token"
	KeyUserID    = "userId"
	KeyUsername  = "username"
	KeyAvatarURL = "avatarUrl"
)

// Profile はログインユーザーのプロフィール情報。
// バックエンドが返すフィールドをそのまま保持するため、任意のキーを許容する。
type Profile map[string]any

// String は指定キーの値を文字列として返す。値が存在しないか文字列でない場合は空文字列を返す。
func (p Profile) String(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p[key].(string)
	return s
}

// Clone はプロフィールの浅いコピーを返す。nilの場合はnilを返す。
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	c := make(Profile, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Merge はpartialのキーで上書きした浅いコピーを返す。
// partialに含まれないキーは元の値を保持する。
func (p Profile) Merge(partial Profile) Profile {
	merged := make(Profile, len(p)+len(partial))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}
