// Command walletctl manages the wallet vault directly on disk. Stop the agent first when
// using the badger store: the data directory is locked by whichever process opens it.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/wallet-agent/internal/app"
	"github.com/AlexZinkM/wallet-agent/internal/common"
	"github.com/AlexZinkM/wallet-agent/internal/config"
	"github.com/AlexZinkM/wallet-agent/internal/logging"
	"github.com/AlexZinkM/wallet-agent/internal/model"

	"github.com/urfave/cli/v2"
)

var (
	Version   string
	walletApp *app.App
)

func main() {
	cliApp := cli.NewApp()
	cliApp.Version = Version
	cliApp.Name = "walletctl"
	cliApp.Usage = "manage the local Solana wallet vault"
	cliApp.Commands = append(
		cliApp.Commands,
		&createCommand,
		&importCommand,
		&accountsCommand,
		&addAccountCommand,
		&deleteAccountCommand,
		&renameCommand,
		&selectCommand,
		&exportKeyCommand,
		&revealCommand,
		&changePasswordCommand,
		&sitesCommand,
		&revokeCommand,
		&balanceCommand,
		&sendCommand,
		&resetCommand,
	)
	cliApp.Flags = []cli.Flag{verboseFlag}
	cliApp.Before = func(ctx *cli.Context) error {
		if err := config.Init(); err != nil {
			return err
		}
		level := config.Get().LogLevel
		if ctx.Bool(verboseFlag.Name) {
			level = "debug"
		}
		if err := logging.Setup(level); err != nil {
			return err
		}

		a, err := app.Open(ctx.Context, config.Get())
		if err != nil {
			return fmt.Errorf("error opening wallet store: %v", err)
		}
		walletApp = a
		return nil
	}
	cliApp.After = func(*cli.Context) error {
		if walletApp == nil {
			return nil
		}
		return walletApp.Close()
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

var (
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug logs",
	}
	passwordFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "wallet password, prompted when omitted",
	}
	mnemonicFlag = &cli.StringFlag{
		Name:  "mnemonic",
		Usage: "seed phrase to import, prompted when omitted",
	}
	indexFlag = &cli.UintFlag{
		Name:     "index",
		Usage:    "account index",
		Required: true,
	}
	optionalIndexFlag = &cli.UintFlag{
		Name:  "index",
		Usage: "account index, next free index when omitted",
	}
	nameFlag = &cli.StringFlag{
		Name:     "name",
		Usage:    "account name",
		Required: true,
	}
	originFlag = &cli.StringFlag{
		Name:  "origin",
		Usage: "site origin to revoke",
	}
	allFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "revoke every connected site",
	}
	backendFlag = &cli.BoolFlag{
		Name:  "backend",
		Usage: "read balance and price from the backend service instead of the RPC node",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "recipient address",
		Required: true,
	}
	amountFlag = &cli.StringFlag{
		Name:     "amount",
		Usage:    "amount to send in SOL",
		Required: true,
	}
	yesFlag = &cli.BoolFlag{
		Name:  "yes",
		Usage: "confirm erasing the vault",
	}
)

var (
	createCommand = cli.Command{
		Name:   "create",
		Usage:  "Create a new wallet and print its seed phrase",
		Action: create,
	}
	importCommand = cli.Command{
		Name:   "import",
		Usage:  "Import a wallet from a seed phrase",
		Flags:  []cli.Flag{mnemonicFlag},
		Action: importWallet,
	}
	accountsCommand = cli.Command{
		Name:   "accounts",
		Usage:  "List accounts",
		Action: accounts,
	}
	addAccountCommand = cli.Command{
		Name:   "add-account",
		Usage:  "Derive a new account",
		Flags:  []cli.Flag{optionalIndexFlag, passwordFlag},
		Action: addAccount,
	}
	deleteAccountCommand = cli.Command{
		Name:   "delete-account",
		Usage:  "Delete an account and revoke its site grants",
		Flags:  []cli.Flag{indexFlag},
		Action: deleteAccount,
	}
	renameCommand = cli.Command{
		Name:   "rename",
		Usage:  "Rename an account",
		Flags:  []cli.Flag{indexFlag, nameFlag},
		Action: rename,
	}
	selectCommand = cli.Command{
		Name:   "select",
		Usage:  "Select the account offered to sites",
		Flags:  []cli.Flag{indexFlag},
		Action: selectAccount,
	}
	exportKeyCommand = cli.Command{
		Name:   "export-key",
		Usage:  "Print the private key of an account",
		Flags:  []cli.Flag{indexFlag, passwordFlag},
		Action: exportKey,
	}
	revealCommand = cli.Command{
		Name:   "reveal",
		Usage:  "Print the seed phrase for backup",
		Flags:  []cli.Flag{passwordFlag},
		Action: reveal,
	}
	changePasswordCommand = cli.Command{
		Name:   "change-password",
		Usage:  "Re-encrypt the vault under a new password",
		Flags:  []cli.Flag{passwordFlag},
		Action: changePassword,
	}
	sitesCommand = cli.Command{
		Name:   "sites",
		Usage:  "List connected sites",
		Action: sites,
	}
	revokeCommand = cli.Command{
		Name:   "revoke",
		Usage:  "Revoke a site's connection",
		Flags:  []cli.Flag{originFlag, allFlag},
		Action: revoke,
	}
	balanceCommand = cli.Command{
		Name:   "balance",
		Usage:  "Show the SOL balance of the selected account",
		Flags:  []cli.Flag{backendFlag},
		Action: balance,
	}
	sendCommand = cli.Command{
		Name:   "send",
		Usage:  "Send SOL from the selected account",
		Flags:  []cli.Flag{toFlag, amountFlag, passwordFlag},
		Action: send,
	}
	resetCommand = cli.Command{
		Name:   "reset",
		Usage:  "Erase the wallet, its accounts and connected sites (back up the seed phrase first)",
		Flags:  []cli.Flag{yesFlag},
		Action: reset,
	}
)

func create(ctx *cli.Context) error {
	password, err := config.PromptForNewPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	mnemonic, account, err := walletApp.Wallet.Create(ctx.Context, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Write down your seed phrase and keep it offline. It is shown only once.")
	return printJSON(model.CreateResponse{
		Success:  true,
		Message:  "Wallet created successfully",
		Account:  account,
		Mnemonic: mnemonic,
	})
}

func importWallet(ctx *cli.Context) error {
	mnemonic := ctx.String(mnemonicFlag.Name)
	if mnemonic == "" {
		raw, err := config.PromptForPassword("Seed phrase: ")
		if err != nil {
			return err
		}
		mnemonic = string(raw)
		clear(raw)
	}

	password, err := config.PromptForNewPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	account, err := walletApp.Wallet.Import(ctx.Context, mnemonic, password)
	if err != nil {
		return err
	}
	return printJSON(model.CreateResponse{
		Success: true,
		Message: "Wallet imported successfully",
		Account: account,
	})
}

func accounts(ctx *cli.Context) error {
	list, err := walletApp.Wallet.Accounts(ctx.Context)
	if err != nil {
		return err
	}
	selected, err := walletApp.Wallet.SelectedAccount(ctx.Context)
	if err != nil {
		return err
	}
	return printJSON(model.AccountsResponse{Accounts: list, SelectedIndex: selected.Index})
}

func addAccount(ctx *cli.Context) error {
	if err := unlock(ctx); err != nil {
		return err
	}

	var (
		account model.Account
		err     error
	)
	if ctx.IsSet(optionalIndexFlag.Name) {
		account, err = walletApp.Wallet.AddAccountAt(ctx.Context, uint32(ctx.Uint(optionalIndexFlag.Name)))
	} else {
		account, err = walletApp.Wallet.AddAccount(ctx.Context)
	}
	if err != nil {
		return err
	}
	return printJSON(account)
}

func deleteAccount(ctx *cli.Context) error {
	return walletApp.Wallet.DeleteAccount(ctx.Context, uint32(ctx.Uint(indexFlag.Name)))
}

func rename(ctx *cli.Context) error {
	return walletApp.Wallet.Rename(ctx.Context, uint32(ctx.Uint(indexFlag.Name)), ctx.String(nameFlag.Name))
}

func selectAccount(ctx *cli.Context) error {
	return walletApp.Wallet.Select(ctx.Context, uint32(ctx.Uint(indexFlag.Name)))
}

func exportKey(ctx *cli.Context) error {
	password, err := readPassword(ctx)
	if err != nil {
		return err
	}
	defer clear(password)

	keyFile, err := walletApp.Wallet.ExportKey(ctx.Context, password, uint32(ctx.Uint(indexFlag.Name)))
	if err != nil {
		return err
	}
	return printJSON(keyFile)
}

func reveal(ctx *cli.Context) error {
	password, err := readPassword(ctx)
	if err != nil {
		return err
	}
	defer clear(password)

	mnemonic, err := walletApp.Wallet.RevealMnemonic(ctx.Context, password)
	if err != nil {
		return err
	}
	fmt.Println(mnemonic)
	return nil
}

func changePassword(ctx *cli.Context) error {
	current, err := readPassword(ctx)
	if err != nil {
		return err
	}
	defer clear(current)

	next, err := config.PromptForNewPassword()
	if err != nil {
		return err
	}
	defer clear(next)

	if err := walletApp.Wallet.ChangePassword(ctx.Context, current, next); err != nil {
		return err
	}
	fmt.Println("password changed")
	return nil
}

func sites(ctx *cli.Context) error {
	list, err := walletApp.Registry.List(ctx.Context)
	if err != nil {
		return err
	}
	return printJSON(model.SitesResponse{Sites: list})
}

func revoke(ctx *cli.Context) error {
	origin := ctx.String(originFlag.Name)
	switch {
	case ctx.Bool(allFlag.Name):
		return walletApp.Registry.RevokeAll(ctx.Context)
	case origin != "":
		return walletApp.Registry.Revoke(ctx.Context, origin)
	default:
		return errors.New("either --origin or --all is required")
	}
}

func reset(ctx *cli.Context) error {
	if !ctx.Bool(yesFlag.Name) {
		return errors.New("reset erases the vault: pass --yes to confirm")
	}
	if err := walletApp.Wallet.Reset(ctx.Context); err != nil {
		return err
	}
	fmt.Println("wallet erased")
	return nil
}

func balance(ctx *cli.Context) error {
	if !ctx.Bool(backendFlag.Name) {
		resp, err := walletApp.Wallet.Balance(ctx.Context)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}

	account, err := walletApp.Wallet.SelectedAccount(ctx.Context)
	if err != nil {
		return err
	}
	sol, err := walletApp.Backend.GetSOLBalance(ctx.Context, account.Address)
	if err != nil {
		return err
	}
	price, err := walletApp.Backend.GetSOLPriceUSD(ctx.Context)
	if err != nil {
		return err
	}
	return printJSON(model.BalanceResponse{
		Address:  account.Address,
		SOL:      fmt.Sprintf("%.9f", sol),
		PriceUSD: fmt.Sprintf("%.2f", price),
		USD:      fmt.Sprintf("%.2f", sol*price),
	})
}

func send(ctx *cli.Context) error {
	if _, err := common.SOLToLamports(ctx.String(amountFlag.Name)); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	password, err := readPassword(ctx)
	if err != nil {
		return err
	}
	defer clear(password)

	resp, err := walletApp.Wallet.SendSOL(ctx.Context, password, ctx.String(toFlag.Name), ctx.String(amountFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(resp)
}

// unlock puts the seed into this process's session for account derivation.
func unlock(ctx *cli.Context) error {
	password, err := readPassword(ctx)
	if err != nil {
		return err
	}
	defer clear(password)
	return walletApp.Wallet.Unlock(ctx.Context, password)
}

func readPassword(ctx *cli.Context) ([]byte, error) {
	if pw := ctx.String(passwordFlag.Name); pw != "" {
		return []byte(pw), nil
	}
	return config.PromptForPassword("Wallet password: ")
}

func printJSON(resp any) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}
