package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"buildinfo/internal/differ"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/injector"
	"buildinfo/internal/launcher"
	"buildinfo/internal/properties"
	"buildinfo/internal/writer"
)

func (r *Runner) newAssembleCmd() *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "assemble [flags] [-- consumer [args...]]",
		Short: "Write the build info properties and run the consumer",
		Long: `Assemble resolves the build info properties, writes them to a new temporary
file and runs the consumer with ` + properties.PropertiesFileEnv + ` pointing at it.
Without a consumer the variable is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := r.prepare(flags)
			if err != nil {
				return err
			}
			res, err := p.assemble()
			if err != nil {
				return err
			}

			w := writer.TempFileWriter{Fs: r.Fs, Dir: r.cfg.TempDir}
			path, err := w.Write(res.Properties)
			if err != nil {
				return err
			}
			log.Info().
				Str("path", path).
				Str("fingerprint", properties.Fingerprint(res.Properties)).
				Int("warnings", len(res.Warnings)).
				Msg("build info properties written")

			if len(args) == 0 {
				fmt.Fprintf(r.Stdout, "%s=%s\n", properties.PropertiesFileEnv, path)
				return nil
			}

			environ, err := injector.InjectPropertiesFile(r.Environ, path)
			if err != nil {
				return err
			}
			consumer := launcher.Command{Target: args[0], Args: args[1:]}
			log.Debug().Str("target", consumer.Target).Strs("args", consumer.Args).Msg("exec consumer")
			if err := r.Exec(consumer, environ); err != nil {
				return errdefs.NewCommandError(err, launcher.ExitCode(err))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

type checkOutput struct {
	Fingerprint string            `json:"fingerprint"`
	Properties  map[string]string `json:"properties"`
	Warnings    []string          `json:"warnings"`
	Artifacts   map[string]bool   `json:"artifacts,omitempty"`
}

func (r *Runner) newCheckCmd() *cobra.Command {
	flags := &buildFlags{}
	var asJSON bool
	var artifacts []string
	cmd := &cobra.Command{
		Use:   "check [flags]",
		Short: "Show the build info properties without writing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := r.prepare(flags)
			if err != nil {
				return err
			}
			res, err := p.assemble()
			if err != nil {
				return err
			}

			out := checkOutput{
				Fingerprint: properties.Fingerprint(res.Properties),
				Properties:  res.Properties.Masked(),
				Warnings:    []string{},
			}
			for _, w := range res.Warnings {
				out.Warnings = append(out.Warnings, w.String())
			}
			if len(artifacts) > 0 {
				out.Artifacts = make(map[string]bool, len(artifacts))
				for _, a := range artifacts {
					out.Artifacts[a] = p.request.Policy.Patterns.Match(a)
				}
			}

			if asJSON {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(r.Stdout, string(data))
				return nil
			}

			rows := make([][]string, 0, res.Properties.Len())
			for _, k := range res.Properties.Keys() {
				rows = append(rows, []string{k, out.Properties[k]})
			}
			table := tablewriter.NewWriter(r.Stdout)
			table.SetHeader([]string{"Key", "Value"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoWrapText(false)
			table.AppendBulk(rows)
			table.Render()

			fmt.Fprintf(r.Stdout, "\nfingerprint: %s\n", out.Fingerprint)
			for _, a := range artifacts {
				decision := "excluded"
				if out.Artifacts[a] {
					decision = "deployed"
				}
				fmt.Fprintf(r.Stdout, "artifact %s: %s\n", a, decision)
			}
			for _, w := range out.Warnings {
				fmt.Fprintf(r.Stdout, "warning: %s\n", w)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().StringArrayVar(&artifacts, "artifact", nil, "artifact path to match against the deployment patterns, may be repeated")
	return cmd
}

func (r *Runner) newDiffCmd() *cobra.Command {
	var asJSON, ci bool
	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two build info property files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := r.readPropertyFile(args[0])
			if err != nil {
				return err
			}
			after, err := r.readPropertyFile(args[1])
			if err != nil {
				return err
			}

			report := differ.Compare(args[0], before.Masked(), args[1], after.Masked())
			switch {
			case asJSON:
				out, err := differ.FormatJSON(report)
				if err != nil {
					return err
				}
				fmt.Fprintln(r.Stdout, out)
			case ci:
				fmt.Fprint(r.Stdout, differ.FormatCI(report))
			default:
				fmt.Fprint(r.Stdout, differ.FormatCLI(report))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&ci, "ci", false, "print GitHub Actions annotations")
	cmd.MarkFlagsMutuallyExclusive("json", "ci")
	return cmd
}

func (r *Runner) readPropertyFile(path string) (*properties.Set, error) {
	data, err := afero.ReadFile(r.Fs, path)
	if err != nil {
		return nil, errdefs.NewIOError("read", path, err)
	}
	set, err := properties.Parse(data)
	if err != nil {
		return nil, errdefs.WrapConfiguration(err, "invalid property file "+path)
	}
	return set, nil
}

func (r *Runner) newServersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List the configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := r.cfg.Registry().List()
			if len(list) == 0 {
				fmt.Fprintln(r.Stdout, "No servers configured")
				return nil
			}

			table := tablewriter.NewWriter(r.Stdout)
			table.SetHeader([]string{"Name", "URL", "Timeout", "Deployer", "Keyring"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoWrapText(false)
			for _, s := range list {
				table.Append([]string{s.Name, s.URL, strconv.Itoa(s.Timeout()), s.Deployer.Username, strconv.FormatBool(s.Keyring)})
			}
			table.Render()
			return nil
		},
	}
}
