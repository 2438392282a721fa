package app

import (
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newActionsCommand() *cobra.Command {
	root := &cobra.Command{Use: "actions", Short: "Journaled trade workflows"}

	var (
		status, intent string
		limit          int
		allNetworks    bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent actions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := s.actionFilter(status, intent, limit, allNetworks)
			if err != nil {
				return err
			}
			if err := s.ensureActionStore(); err != nil {
				return err
			}
			items, err := s.actionStore.List(filter)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list actions", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), items, nil, cacheMetaBypass(), nil, false)
		},
	}
	list.Flags().StringVar(&status, "status", "", "Filter by status (planned|running|completed|failed)")
	list.Flags().StringVar(&intent, "intent", "", "Filter by intent (swap|approve|add_liquidity|remove_liquidity)")
	list.Flags().IntVar(&limit, "limit", execution.DefaultListLimit, "Maximum actions to return")
	list.Flags().BoolVar(&allNetworks, "all-networks", false, "Include actions from every network")

	var actionID, txID string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show one action with its steps and transaction ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(txID) == "" {
				id, err := resolveActionID(actionID)
				if err != nil {
					return err
				}
				actionID = id
			} else if strings.TrimSpace(actionID) != "" {
				return clierr.New(clierr.CodeUsage, "use either --action-id or --tx-id, not both")
			}
			if err := s.ensureActionStore(); err != nil {
				return err
			}
			var (
				action execution.Action
				err    error
			)
			if actionID != "" {
				action, err = s.actionStore.Get(actionID)
			} else {
				action, err = s.actionStore.FindByTxID(txID)
			}
			if err != nil {
				if _, ok := clierr.As(err); ok {
					return err
				}
				return clierr.Wrap(clierr.CodeInternal, "load action", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), action, nil, cacheMetaBypass(), nil, false)
		},
	}
	show.Flags().StringVar(&actionID, "action-id", "", "Action identifier (act_...)")
	show.Flags().StringVar(&txID, "tx-id", "", "Transaction id submitted by one of the action's steps")

	root.AddCommand(list)
	root.AddCommand(show)
	return root
}

func (s *runtimeState) actionFilter(status, intent string, limit int, allNetworks bool) (execution.ListFilter, error) {
	filter := execution.ListFilter{
		Status: strings.ToLower(strings.TrimSpace(status)),
		Intent: strings.ToLower(strings.TrimSpace(intent)),
		Limit:  limit,
	}
	if filter.Status != "" && !validActionStatus(filter.Status) {
		return filter, clierr.Newf(clierr.CodeUsage, "invalid status filter: %s", filter.Status)
	}
	if filter.Intent != "" && !validIntent(filter.Intent) {
		return filter, clierr.Newf(clierr.CodeUsage, "invalid intent filter: %s", filter.Intent)
	}
	if limit < 0 {
		return filter, clierr.New(clierr.CodeUsage, "--limit must be positive")
	}
	if !allNetworks {
		filter.Network = s.network.Name
	}
	return filter, nil
}

func resolveActionID(input string) (string, error) {
	id := strings.TrimSpace(input)
	if id == "" {
		return "", clierr.New(clierr.CodeUsage, "--action-id or --tx-id is required")
	}
	if !strings.HasPrefix(id, "act_") {
		return "", clierr.Newf(clierr.CodeUsage, "invalid action id: %s", id)
	}
	return id, nil
}

func validActionStatus(status string) bool {
	switch execution.ActionStatus(status) {
	case execution.ActionStatusPlanned, execution.ActionStatusRunning, execution.ActionStatusCompleted, execution.ActionStatusFailed:
		return true
	default:
		return false
	}
}

func validIntent(intent string) bool {
	switch intent {
	case execution.IntentSwap, execution.IntentApprove, execution.IntentAddLiquidity, execution.IntentRemoveLiquidity:
		return true
	default:
		return false
	}
}
