package app

import (
	"database/sql"

	"github.com/formsend/formsend/config"
	"github.com/formsend/formsend/httpx"
)

type App struct {
	*sql.DB
	Tokens *httpx.TokenIssuer
	config.Config
}
