package tui

import (
	"github.com/ykarpov/billkeeper/models"
)

type listLoadedMsg struct {
	bills   []models.Entity
	budgets []models.Entity
	err     error
}

type syncStateMsg struct {
	state models.SyncState
}

type syncDoneMsg struct {
	err error
}

type itemSavedMsg struct {
	err error
}

type itemDeletedMsg struct {
	err error
}
