package app

// Command はCLIのサブコマンドを表す。
type Command string

const (
	CommandLogin       Command = "login"
	CommandRegister    Command = "register"
	CommandLogout      Command = "logout"
	CommandWhoami      Command = "whoami"
	CommandSearch      Command = "search"
	CommandBook        Command = "book"
	CommandAuthor      Command = "author"
	CommandComments    Command = "comments"
	CommandComment     Command = "comment"
	CommandUncomment   Command = "uncomment"
	CommandFavorite    Command = "favorite"
	CommandFavorites   Command = "favorites"
	CommandCategories  Command = "categories"
	CommandTags        Command = "tags"
	CommandLang        Command = "lang"
	CommandProxy       Command = "proxy"
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp は使い方を表示する。引数が空または未知のコマンドの場合もこれになる。
	CommandHelp Command = "help"
)

var commands = map[string]Command{
	string(CommandLogin):       CommandLogin,
	string(CommandRegister):    CommandRegister,
	string(CommandLogout):      CommandLogout,
	string(CommandWhoami):      CommandWhoami,
	string(CommandSearch):      CommandSearch,
	string(CommandBook):        CommandBook,
	string(CommandAuthor):      CommandAuthor,
	string(CommandComments):    CommandComments,
	string(CommandComment):     CommandComment,
	string(CommandUncomment):   CommandUncomment,
	string(CommandFavorite):    CommandFavorite,
	string(CommandFavorites):   CommandFavorites,
	string(CommandCategories):  CommandCategories,
	string(CommandTags):        CommandTags,
	string(CommandLang):        CommandLang,
	string(CommandProxy):       CommandProxy,
	string(CommandHealthcheck): CommandHealthcheck,
	string(CommandHelp):        CommandHelp,
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandHelpを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandHelp
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandHelp
}

const usage = `Usage: smartlib <command> [arguments]

Commands:
  login <account> <password>        log in with phone number or email
  register <account> <password> [confirm]
  logout                            log out and clear the local session
  whoami                            show the logged-in user
  search [-keyword k] [-page n] [-size n] [-category id,...] [-tag id,...]
  book <bookId>                     show book details
  author <authorId>                 show author details
  comments <bookId>                 list comments on a book
  comment <bookId> <text>           post a comment
  uncomment <commentId>             delete a comment
  favorite <bookId>                 add or remove a book from favorites
  favorites [-limit n] [-offset n]  list favorites
  categories                        list categories
  tags                              list tags
  lang [zh|en|auto|toggle]          show or change the display language
  proxy                             run the development reverse proxy
  healthcheck                       check the proxy /health endpoint
  help                              show this message
`
