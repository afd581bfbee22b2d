package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-cli-base"

	"github.com/shouni/review-keyword-pipe-go/internal/config"
)

// Execute は、CLIアプリケーションのルートエントリポイントです。
// 全てのサブコマンドをルートコマンドにアタッチし、実行を開始します。
func Execute() {
	clibase.Execute("review-keyword-pipe-go", nil, createPreRunE(loadEnv), runCmd)
}

// createPreRunE は、clibase共通のPersistentPreRunEロジックとアプリケーション固有のロジックを結合した関数を作成します。
func createPreRunE(preRunE func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(newLogger(clibase.Flags.Verbose))
		if clibase.Flags.Verbose {
			slog.Debug("Verbose mode enabled.")
		}

		// アプリケーション固有の PersistentPreRunE 処理を実行
		if preRunE != nil {
			return preRunE(cmd, args)
		}
		return nil
	}
}

// newLogger は Verbose モードではデバッグレベルとソース位置を含むロガーを返します。
func newLogger(verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadEnv はカレントディレクトリの .env を環境変数に読み込みます。
func loadEnv(cmd *cobra.Command, args []string) error {
	return config.LoadEnv()
}
