package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// CLIで表示するメッセージのキー。
const (
	MsgLoginSuccess     = "login.success"
	MsgLogoutSuccess    = "logout.success"
	MsgRegistered       = "register.success"
	MsgLoginRequired    = "auth.login_required"
	MsgSessionExpired   = "auth.session_expired"
	MsgNotLoggedIn      = "auth.not_logged_in"
	MsgWhoami           = "auth.whoami"
	MsgTokenExpires     = "auth.token_expires"
	MsgFavoriteAdded    = "favorite.added"
	MsgFavoriteRemoved  = "favorite.removed"
	MsgFavoriteCount    = "favorite.count"
	MsgFavorited        = "favorite.state"
	MsgCommentCreated   = "comment.created"
	MsgCommentDeleted   = "comment.deleted"
	MsgOperationFailed  = "error.operation_failed"
	MsgNoResults        = "list.empty"
	MsgSearchSummary    = "search.summary"
	MsgLanguage         = "lang.current"
	MsgLanguageAuto     = "lang.auto"
	MsgLanguageManual   = "lang.manual"
	MsgRedirectedLogin  = "route.redirected_login"
	MsgUnknownCommand   = "cli.unknown_command"
	MsgProxyListening   = "proxy.listening"
	MsgHealthcheckOK    = "healthcheck.ok"
	MsgHealthcheckNG    = "healthcheck.ng"
	MsgCategoriesHeader = "categories.header"
	MsgTagsHeader       = "tags.header"
)

var messages = map[string]struct{ zh, en string }{
	MsgLoginSuccess:     {"登录成功：%s", "Logged in as %s"},
	MsgLogoutSuccess:    {"已退出登录", "Logged out"},
	MsgRegistered:       {"注册成功", "Registered successfully"},
	MsgLoginRequired:    {"请先登录", "Please log in first"},
	MsgSessionExpired:   {"登录已过期，请重新登录", "Session expired, please log in again"},
	MsgNotLoggedIn:      {"未登录", "Not logged in"},
	MsgWhoami:           {"用户：%s（ID：%s）", "User: %s (ID: %s)"},
	MsgTokenExpires:     {"令牌过期时间：%s", "Token expires at %s"},
	MsgFavoriteAdded:    {"收藏成功", "Added to favorites"},
	MsgFavoriteRemoved:  {"已取消收藏", "Removed from favorites"},
	MsgFavoriteCount:    {"共 %d 个收藏", "%d favorites"},
	MsgFavorited:        {"已收藏", "In favorites"},
	MsgCommentCreated:   {"评论成功", "Comment posted"},
	MsgCommentDeleted:   {"评论已删除", "Comment deleted"},
	MsgOperationFailed:  {"操作失败", "Operation failed"},
	MsgNoResults:        {"暂无数据", "No results"},
	MsgSearchSummary:    {"共找到 %d 本图书（第 %d 页）", "%d books found (page %d)"},
	MsgLanguage:         {"语言：%s（%s）", "Language: %s (%s)"},
	MsgLanguageAuto:     {"自动", "auto"},
	MsgLanguageManual:   {"手动", "manual"},
	MsgRedirectedLogin:  {"需要登录，请运行 smartlib login", "Login required, run: smartlib login"},
	MsgUnknownCommand:   {"未知命令：%s", "unknown command: %s"},
	MsgProxyListening:   {"代理已启动：%s -> %s", "Proxy listening on %s -> %s"},
	MsgHealthcheckOK:    {"正常", "OK"},
	MsgHealthcheckNG:    {"异常：%s", "unhealthy: %s"},
	MsgCategoriesHeader: {"分类", "Categories"},
	MsgTagsHeader:       {"标签", "Tags"},
}

var messageCatalog = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, m := range messages {
		// キーは固定値のためエラーにならない
		_ = b.SetString(language.Chinese, key, m.zh)
		_ = b.SetString(language.English, key, m.en)
	}
	return b
}
