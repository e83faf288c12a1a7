package handlers

import (
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// Registrar is implemented by *telegram.Bot and *telegram.Router.
type Registrar interface {
	RegisterCommand(command string, handler telegram.CommandHandler)
}

// Register wires every bot command.
func Register(r Registrar, deps Deps) {
	lists := NewListHandlers(deps)
	items := NewItemHandlers(deps)
	sel := NewSelectionHandlers(deps)

	r.RegisterCommand("start", NewStartHandler(deps))
	r.RegisterCommand("help", NewHelpHandler(deps.Logger))

	r.RegisterCommand("lists", telegram.HandlerFunc(lists.Lists))
	r.RegisterCommand("newlist", telegram.HandlerFunc(lists.NewList))
	r.RegisterCommand("use", telegram.HandlerFunc(lists.Use))
	r.RegisterCommand("renamelist", telegram.HandlerFunc(lists.RenameList))
	r.RegisterCommand("dellist", telegram.HandlerFunc(lists.DeleteList))

	r.RegisterCommand("items", telegram.HandlerFunc(items.Items))
	r.RegisterCommand("add", telegram.HandlerFunc(items.Add))
	r.RegisterCommand("edit", telegram.HandlerFunc(items.Edit))
	r.RegisterCommand("done", telegram.HandlerFunc(items.Done))
	r.RegisterCommand("del", telegram.HandlerFunc(items.Delete))
	r.RegisterCommand("link", telegram.HandlerFunc(items.Link))
	r.RegisterCommand("unlink", telegram.HandlerFunc(items.Unlink))

	r.RegisterCommand("select", telegram.HandlerFunc(sel.Select))
	r.RegisterCommand("filter", telegram.HandlerFunc(sel.Filter))
	r.RegisterCommand("blur", telegram.HandlerFunc(sel.Blur))
	r.RegisterCommand("open", telegram.HandlerFunc(sel.Open))
	r.RegisterCommand("purchased", sel.Purchased(true))
	r.RegisterCommand("unpurchased", sel.Purchased(false))

	r.RegisterCommand("invite", NewInviteHandler(deps))
	r.RegisterCommand("join", NewJoinHandler(deps))
	r.RegisterCommand("members", NewMembersHandler(deps))
}
