package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriTalk/internal/core"
	"github.com/Rorical/RoriTalk/internal/models"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot without the TUI",
}

var settingFlags = []string{core.SettingVoice, core.SettingEmotion, core.SettingSpeed, core.SettingFormat}

var sayCmd = &cobra.Command{
	Use:   "say [text...]",
	Short: "Send a message or a document and print the reply's audio URL",
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		requireSession(cmd.Context(), c)

		for _, name := range settingFlags {
			if !cmd.Flags().Changed(name) {
				continue
			}
			value, _ := cmd.Flags().GetString(name)
			if _, err := c.Settings.Set(name, value); err != nil {
				log.Fatalf("Invalid --%s: %v", name, err)
			}
		}

		var err error
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			upload, loadErr := core.LoadUpload(path)
			if loadErr != nil {
				log.Fatalf("Failed to read file: %v", loadErr)
			}
			err = c.Conversation.SubmitFile(cmd.Context(), upload)
		} else {
			err = c.Conversation.SubmitText(cmd.Context(), strings.Join(args, " "))
		}

		if err == nil {
			messages := c.Conversation.Messages()
			if last := messages[len(messages)-1]; last.Sender == models.Bot {
				fmt.Println(last.Text)
			}
		}
		finish(c, err)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation history",
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		requireSession(cmd.Context(), c)

		if err := c.Conversation.LoadHistory(cmd.Context()); err != nil {
			finish(c, err)
		}
		for _, m := range c.Conversation.Messages() {
			switch {
			case m.Sender == models.Bot:
				fmt.Printf("bot:  %s\n", m.Text)
			case m.IsFile:
				fmt.Printf("you:  [file] %s\n", m.Text)
			default:
				fmt.Printf("you:  %s\n", m.Text)
			}
		}
	},
}

func init() {
	defaults := models.DefaultTtsSettings()
	sayCmd.Flags().String("file", "", "send a .txt, .docx or .pdf document instead of text")
	sayCmd.Flags().String(core.SettingVoice, defaults.Voice, "voice: "+strings.Join(core.Voices, ", "))
	sayCmd.Flags().String(core.SettingEmotion, defaults.Emotion, "emotion: "+strings.Join(core.Emotions, ", "))
	sayCmd.Flags().String(core.SettingSpeed, fmt.Sprint(defaults.Speed), fmt.Sprintf("speech speed, %.1f to %.1f", core.MinSpeed, core.MaxSpeed))
	sayCmd.Flags().String(core.SettingFormat, defaults.Format, "audio format: "+strings.Join(core.Formats, ", "))

	chatCmd.AddCommand(sayCmd)
	chatCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(chatCmd)
}
