package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hitoshi/smartlib/internal/api"
	"github.com/hitoshi/smartlib/internal/config"
	"github.com/hitoshi/smartlib/internal/favorite"
	"github.com/hitoshi/smartlib/internal/locale"
	"github.com/hitoshi/smartlib/internal/logger"
	"github.com/hitoshi/smartlib/internal/proxy"
	"github.com/hitoshi/smartlib/internal/route"
	"github.com/hitoshi/smartlib/internal/session"
	"github.com/hitoshi/smartlib/internal/storage"
)

// Execute はサブコマンドを実行する。
func (a *App) Execute(ctx context.Context, cmd Command, args []string) error {
	switch cmd {
	case CommandLogin:
		return a.login(ctx, args)
	case CommandRegister:
		return a.register(ctx, args)
	case CommandLogout:
		return a.logout(ctx)
	case CommandWhoami:
		return a.whoami()
	case CommandSearch:
		return a.search(ctx, args)
	case CommandBook:
		return a.book(ctx, args)
	case CommandAuthor:
		return a.author(ctx, args)
	case CommandComments:
		return a.comments(ctx, args)
	case CommandComment:
		return a.comment(ctx, args)
	case CommandUncomment:
		return a.uncomment(ctx, args)
	case CommandFavorite:
		return a.favorite(ctx, args)
	case CommandFavorites:
		return a.favorites(ctx, args)
	case CommandCategories:
		return a.categories(ctx)
	case CommandTags:
		return a.tags(ctx)
	case CommandLang:
		return a.lang(ctx, args)
	case CommandProxy:
		return a.proxy(ctx)
	case CommandHealthcheck:
		return runHealthcheck(ctx, a.out, a.cfg, a.logger)
	default:
		fmt.Fprint(a.out, usage)
		return nil
	}
}

// errMissingToken はログインAPIが文字列のトークンを返さなかったことを表す。
var errMissingToken = errors.New("ログインレスポンスにトークンが含まれていません")

func usageError(synopsis string) error {
	return fmt.Errorf("使い方: smartlib %s", synopsis)
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("login <account> <password>")
	}

	profile, err := a.api.Login(ctx, api.LoginRequest{PhoneOrEmail: args[0], Password: args[1]})
	if err != nil {
		return a.fail(err)
	}
	if profile.String(session.KeyToken) == "" {
		return a.fail(errMissingToken)
	}
	if err := a.session.Login(ctx, profile); err != nil {
		return fmt.Errorf("セッションの保存に失敗しました: %w", err)
	}

	a.printf(locale.MsgLoginSuccess, a.session.Username())
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("register <account> <password> [confirm]")
	}
	confirm := args[1]
	if len(args) > 2 {
		confirm = args[2]
	}

	err := a.api.Register(ctx, api.RegisterRequest{
		PhoneOrEmail:    args[0],
		Password:        args[1],
		ConfirmPassword: confirm,
	})
	if err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgRegistered)
	return nil
}

// logout はバックエンドのトークンを無効化してからローカルのセッションを破棄する。
// バックエンドの呼び出しに失敗してもローカルのセッションは破棄する。
func (a *App) logout(ctx context.Context) error {
	if a.session.IsLoggedIn() {
		if err := a.api.Logout(ctx); err != nil {
			a.logger.Warn("バックエンドのログアウトに失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}
	if err := a.session.Logout(ctx); err != nil {
		return fmt.Errorf("セッションの破棄に失敗しました: %w", err)
	}

	a.printf(locale.MsgLogoutSuccess)
	return nil
}

func (a *App) whoami() error {
	if !a.session.IsLoggedIn() {
		a.printf(locale.MsgNotLoggedIn)
		return nil
	}

	id, _ := a.session.UserID()
	a.printf(locale.MsgWhoami, a.session.Username(), id)

	claims, err := a.session.Claims()
	if err != nil {
		a.logger.Debug("token is not a JWT", slog.String("error", err.Error()))
		return nil
	}
	if !claims.ExpiresAt.IsZero() {
		a.printf(locale.MsgTokenExpires, claims.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

// visit はクライアント内ルーターで遷移する。
// ログインが必要な画面でログイン画面に誘導された場合はsession.ErrNotLoggedInを返す。
func (a *App) visit(ctx context.Context, path string) error {
	to, err := a.router.Push(ctx, path)
	if err != nil {
		return err
	}
	if to.Route.Name == route.NameLogin && !strings.HasPrefix(path, a.cfg.LoginPath) {
		return a.fail(session.ErrNotLoggedIn)
	}
	return nil
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (a *App) search(ctx context.Context, args []string) error {
	fs := newFlagSet("search", a.out)
	keyword := fs.String("keyword", "", "search keyword")
	page := fs.Int("page", api.DefaultPageNum, "page number")
	size := fs.Int("size", api.DefaultPageSize, "page size")
	categories := fs.String("category", "", "comma separated category ids")
	tags := fs.String("tag", "", "comma separated tag ids")
	sortBy := fs.String("sort", "", "sort key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyword == "" && fs.NArg() > 0 {
		*keyword = strings.Join(fs.Args(), " ")
	}

	q := url.Values{}
	if *keyword != "" {
		q.Set("keyword", *keyword)
	}
	q.Set("page", strconv.Itoa(*page))
	if err := a.visit(ctx, "/book?"+q.Encode()); err != nil {
		return err
	}

	result, err := a.api.SearchBooks(ctx, api.SearchParams{
		PageNum:     *page,
		PageSize:    *size,
		Keyword:     *keyword,
		CategoryIDs: splitList(*categories),
		TagIDs:      splitList(*tags),
		SortBy:      *sortBy,
	})
	if err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgSearchSummary, result.Total, result.PageNum)
	if len(result.List) == 0 {
		a.printf(locale.MsgNoResults)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, b := range result.List {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ResourceID, b.Title, authorNames(b.Authors), b.Publisher)
	}
	return w.Flush()
}

func authorNames(authors []api.AuthorBrief) string {
	names := make([]string, 0, len(authors))
	for _, au := range authors {
		names = append(names, au.Name)
	}
	return strings.Join(names, ", ")
}

func (a *App) book(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("book <bookId>")
	}
	id := args[0]
	if err := a.visit(ctx, "/book/"+url.PathEscape(id)); err != nil {
		return err
	}

	b, err := a.api.GetBook(ctx, id)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, b.Title)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", b.ResourceID)
	if len(b.Authors) > 0 {
		fmt.Fprintf(w, "Authors\t%s\n", authorNames(b.Authors))
	}
	if b.Publisher != "" {
		fmt.Fprintf(w, "Publisher\t%s\n", b.Publisher)
	}
	if b.PublishDate != "" {
		fmt.Fprintf(w, "Published\t%s\n", b.PublishDate)
	}
	if b.ISBN != "" {
		fmt.Fprintf(w, "ISBN\t%s\n", b.ISBN)
	}
	if b.PageCount > 0 {
		fmt.Fprintf(w, "Pages\t%d\n", b.PageCount)
	}
	for _, f := range b.Files {
		fmt.Fprintf(w, "File\t%s %s\n", f.FileTypeDesc, f.FileURL)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := b.Summary
	if summary == "" {
		summary = b.Description
	}
	if text := a.sanitizer.PlainText(summary); text != "" {
		fmt.Fprintf(a.out, "\n%s\n", text)
	}

	if a.tracker(id).Check(ctx) {
		a.printf(locale.MsgFavorited)
	}
	return nil
}

func (a *App) author(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("author <authorId>")
	}
	id := args[0]
	if err := a.visit(ctx, "/author/"+url.PathEscape(id)); err != nil {
		return err
	}

	au, err := a.api.GetAuthor(ctx, id)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, au.Name)
	if au.Nationality != "" {
		fmt.Fprintln(a.out, au.Nationality)
	}
	if text := a.sanitizer.PlainText(au.Intro); text != "" {
		fmt.Fprintf(a.out, "\n%s\n", text)
	}
	if len(au.Books) == 0 {
		return nil
	}

	fmt.Fprintln(a.out)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, b := range au.Books {
		fmt.Fprintf(w, "%s\t%s\n", b.ResourceID, b.Title)
	}
	return w.Flush()
}

func (a *App) comments(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("comments <bookId>")
	}

	list, err := a.api.Comments(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	if len(list) == 0 {
		a.printf(locale.MsgNoResults)
		return nil
	}

	for _, c := range list {
		fmt.Fprintf(a.out, "[%s] %s %s\n", c.CommentID, c.Username, c.Ctime)
		fmt.Fprintf(a.out, "  %s\n", a.sanitizer.PlainText(c.Content))
	}
	return nil
}

func (a *App) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("comment <bookId> <text>")
	}

	c, err := a.api.CreateComment(ctx, api.CreateCommentRequest{
		ResourceID: args[0],
		Content:    strings.Join(args[1:], " "),
	})
	if err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgCommentCreated)
	if c.CommentID != "" {
		fmt.Fprintln(a.out, c.CommentID)
	}
	return nil
}

func (a *App) uncomment(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("uncomment <commentId>")
	}
	if err := a.api.DeleteComment(ctx, args[0]); err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgCommentDeleted)
	return nil
}

func (a *App) tracker(resourceID string) *favorite.Tracker {
	return favorite.NewTracker(resourceID, a.api, a.session, a.router, a.cfg.LoginPath,
		logger.Component(a.logger, "favorite"))
}

// favorite はお気に入りの状態を確認してから切り替える。
func (a *App) favorite(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("favorite <bookId>")
	}

	t := a.tracker(args[0])
	t.Check(ctx)
	favorited, err := t.Toggle(ctx)
	if err != nil {
		return a.fail(err)
	}

	if favorited {
		a.printf(locale.MsgFavoriteAdded)
	} else {
		a.printf(locale.MsgFavoriteRemoved)
	}
	return nil
}

func (a *App) favorites(ctx context.Context, args []string) error {
	fs := newFlagSet("favorites", a.out)
	limit := fs.Int("limit", api.DefaultFavoriteLimit, "max items")
	offset := fs.Int("offset", 0, "offset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.visit(ctx, "/favorites"); err != nil {
		return err
	}

	list, err := a.api.Favorites(ctx, *limit, *offset)
	if err != nil {
		return a.fail(err)
	}
	count, err := a.api.CountFavorites(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgFavoriteCount, count)
	if len(list) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, f := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.ResourceID, f.Title, f.Ctime)
	}
	return w.Flush()
}

func (a *App) categories(ctx context.Context) error {
	list, err := a.api.Categories(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgCategoriesHeader)
	if len(list) == 0 {
		a.printf(locale.MsgNoResults)
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s%s\n", c.CategoryID, strings.Repeat("  ", max(c.Level-1, 0)), c.Name)
	}
	return w.Flush()
}

func (a *App) tags(ctx context.Context) error {
	list, err := a.api.Tags(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.printf(locale.MsgTagsHeader)
	if len(list) == 0 {
		a.printf(locale.MsgNoResults)
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\n", t.TagID, t.Name)
	}
	return w.Flush()
}

func (a *App) lang(ctx context.Context, args []string) error {
	if len(args) > 0 {
		var err error
		switch args[0] {
		case "auto":
			err = a.locale.ResetToAuto(ctx)
		case "toggle":
			_, err = a.locale.Toggle(ctx)
		default:
			err = a.locale.Set(ctx, args[0])
		}
		if err != nil {
			return err
		}
	}

	mode := a.printer().Sprintf(locale.MsgLanguageManual)
	if a.locale.IsAuto() {
		mode = a.printer().Sprintf(locale.MsgLanguageAuto)
	}
	a.printf(locale.MsgLanguage, a.locale.Current(), mode)
	return nil
}

func (a *App) proxy(ctx context.Context) error {
	s, err := proxy.New(a.cfg.Proxy, proxy.Deps{
		Collector:     a.collector,
		Gatherer:      a.registry,
		RenewalHeader: a.cfg.RenewalHeader,
		Logger:        logger.Component(a.logger, "proxy"),
	})
	if err != nil {
		return err
	}

	a.printf(locale.MsgProxyListening, s.Addr(), a.cfg.Proxy.BackendURL)
	return s.Run(ctx)
}

// runHealthcheck はプロキシの /health にリクエストを送り、結果を表示する。
// distroless環境でのDockerヘルスチェック用のため、ストレージやGatewayは初期化しない。
func runHealthcheck(ctx context.Context, out io.Writer, cfg *config.Config, log *slog.Logger) error {
	loc := locale.Open(ctx, storage.NewMemory(), locale.PreferredFromEnv(cfg.Language, cfg.Lang), log)
	p := loc.Printer()

	err := checkHealth(ctx, fmt.Sprintf("http://localhost:%s/health", cfg.Proxy.Port))
	if err != nil {
		fmt.Fprintln(out, p.Sprintf(locale.MsgHealthcheckNG, err.Error()))
		return err
	}
	fmt.Fprintln(out, p.Sprintf(locale.MsgHealthcheckOK))
	return nil
}

func checkHealth(ctx context.Context, target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("ヘルスチェックに失敗しました: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ヘルスチェックに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ヘルスチェックがステータス %d を返しました", resp.StatusCode)
	}
	return nil
}
