package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc     *user.Service
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset user's password")
	fmt.Fprintln(cli.out, "  report [-search QUERY]           - print students by dropout risk")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportCmd.SetOutput(cli.out)
	reportSearch := reportCmd.String("search", "", "Only list students whose ID, username or full name contains QUERY.")

	switch args[1] {
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, string(pwd))
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.report(*reportSearch)
	default:
		cli.printUsage()
		return errHelp
	}
}

// errorMessage renders validation errors field by field.
func (cli *commandLine) errorMessage(err error) string {
	switch cause := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(cause))
		for _, fe := range cause {
			msgs = append(msgs, fe.Translate(cli.translator))
		}
		return "error: " + strings.Join(msgs, "; ")
	case *core.ValidationError:
		return "error: " + cause.Error()
	}
	return fmt.Sprintf("error: %v", err)
}
