package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func init() {
	rootCmd.AddCommand(cmdList)
	rootCmd.AddCommand(cmdGet)
	rootCmd.AddCommand(cmdSet)
}

var (
	cmdList = &cobra.Command{
		Use:   "list",
		Short: "List the visible attributes and their access modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client := clientFromContext(ctx)

			resp, err := client.List(ctx, &emptypb.Empty{})
			if err != nil {
				return err
			}
			nrFans, attrs, err := fanctrlv1.ParseListResponse(resp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d fan(s)\n", nrFans)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, attr := range attrs {
				fmt.Fprintf(w, "%s\t%s\n", attr.Name, attr.Mode)
			}
			return w.Flush()
		},
	}

	cmdGet = &cobra.Command{
		Use:     "get <attribute>",
		Example: "fanctl get fan1_input",
		Short:   "Read an attribute",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := clientFromContext(ctx)

			value, err := client.Read(ctx, wrapperspb.String(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value.GetValue())
			return nil
		},
	}

	cmdSet = &cobra.Command{
		Use:     "set <attribute> <value>",
		Example: "fanctl set pwm1 128",
		Short:   "Write an attribute",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := clientFromContext(ctx)

			// convert string to int
			value, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}

			_, err = client.Write(ctx, fanctrlv1.NewWriteRequest(args[0], value))
			return err
		},
	}
)
