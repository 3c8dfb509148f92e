package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	pickUp        key.Binding
	drop          key.Binding
	cancel        key.Binding
	addCard       key.Binding
	cardInfo      key.Binding
	copyID        key.Binding
	moveCardLeft  key.Binding
	moveCardRight key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		pickUp:        key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "pick up card")),
		drop:          key.NewBinding(key.WithKeys("space", " ", "enter"), key.WithHelp("space/enter", "drop card")),
		cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		addCard:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		cardInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "card info")),
		copyID:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy card id")),
		moveCardLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move card left")),
		moveCardRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move card right")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.pickUp, k.addCard, k.cardInfo, k.moveCardLeft, k.moveCardRight, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addCard, k.cardInfo, k.copyID, k.reload, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.pickUp, k.drop, k.cancel, k.moveCardLeft, k.moveCardRight},
	}
}

// dragKeyMap is the help shown while a keyboard drag is in progress.
type dragKeyMap struct {
	keys keyMap
}

func (d dragKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{d.keys.moveUp, d.keys.moveDown, d.keys.moveLeft, d.keys.moveRight, d.keys.drop, d.keys.cancel}
}

func (d dragKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{d.ShortHelp()}
}
