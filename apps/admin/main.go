package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/mawazo/shule/core"
	"github.com/mawazo/shule/core/account"
	emailsvc "github.com/mawazo/shule/services/email"
	logsvc "github.com/mawazo/shule/services/logger"
	"github.com/mawazo/shule/storage/database"
	sqlxrepos "github.com/mawazo/shule/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	coreLogger := logsvc.NewRollbarLogger(logger, conf)
	coreLogger.Enable(false)
	core.ParseEmailTemplates(conf, coreLogger)

	svc := account.NewService(
		sqlxrepos.NewAccountRepository(sqlx.NewDb(db, "postgres")),
		emailsvc.NewConsoleService(conf),
		conf,
	)

	// start CLI
	cli := commandLine{
		db:       db,
		svc:      svc,
		validate: validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
