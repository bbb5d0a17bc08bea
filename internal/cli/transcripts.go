package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/format"
	"github.com/alnah/go-surrocare/internal/lang"
	"github.com/alnah/go-surrocare/internal/transcripts"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key
// used for local transcription.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// TranscriptsCmd creates the transcripts command with subcommands.
// The env parameter provides injectable dependencies for testing.
func TranscriptsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Upload interview recordings and transcripts",
		Long: `Upload interview recordings to a surrogate's case file.

By default the recording is uploaded as-is and the backend transcribes it.
With --transcribe, the audio is transcribed locally using OpenAI and only
the resulting text reaches the backend. Local transcription requires
OPENAI_API_KEY.`,
		Example: `  surrocare transcripts upload 42 interview.ogg
  surrocare transcripts upload 42 interview.ogg --transcribe
  surrocare transcripts upload 42 interview.ogg --transcribe -l pt`,
	}

	cmd.AddCommand(transcriptsUploadCmd(env))

	return cmd
}

// transcriptsUploadCmd creates the "transcripts upload" subcommand.
func transcriptsUploadCmd(env *Env) *cobra.Command {
	var (
		transcribe bool
		language   string
		prompt     string
	)

	cmd := &cobra.Command{
		Use:   "upload <surrogate-id> <audio-file>",
		Short: "Upload an interview recording",
		Example: `  surrocare transcripts upload 42 interview.ogg
  surrocare transcripts upload 42 interview.ogg --transcribe --prompt "surrogacy intake interview"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscriptsUpload(cmd.Context(), env, args[0], args[1], transcribe, language, prompt)
		},
	}

	cmd.Flags().BoolVar(&transcribe, "transcribe", false, "Transcribe locally and attach text only")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, pt)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Transcription prompt to bias vocabulary")

	return cmd
}

// runTranscriptsUpload executes the upload.
// Validation order: id -> file exists -> format -> language -> session -> API key
func runTranscriptsUpload(ctx context.Context, env *Env, rawID, audioPath string, transcribe bool, language, prompt string) error {
	// === VALIDATION (fail-fast) ===

	// 1. Surrogate ID is a number
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	// 2. File exists
	info, err := os.Stat(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, audioPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	// 3. Format supported
	if err := transcripts.ValidAudio(audioPath); err != nil {
		return err
	}

	// 4. Language hint is a known code
	if err := lang.Validate(language); err != nil {
		return err
	}

	// 5. Session present
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	// 6. API key present (only local transcription needs one)
	var apiKey string
	if transcribe {
		apiKey = env.Getenv(EnvOpenAIAPIKey)
		if apiKey == "" {
			return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
		}
	}

	// === UPLOAD ===

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewTranscripts(client)

	var tr transcripts.Transcript
	if transcribe {
		fmt.Fprintf(env.Stderr, "Transcribing %s (%s)...\n", filepath.Base(audioPath), format.Size(info.Size()))
		transcriber := env.TranscriberFactory.NewTranscriber(apiKey)
		opts := transcripts.Options{Prompt: prompt, Language: language}
		tr, err = svc.TranscribeAndAttach(ctx, id, audioPath, transcriber, opts)
	} else {
		fmt.Fprintf(env.Stderr, "Uploading %s (%s)...\n", filepath.Base(audioPath), format.Size(info.Size()))
		tr, err = svc.Upload(ctx, id, audioPath)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Transcript %d for surrogate %d: %s\n", tr.ID, tr.SurrogateID, tr.Status)
	return nil
}
