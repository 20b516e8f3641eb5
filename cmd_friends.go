package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/infra"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

func (c *cli) newFriendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage a friend list directly against the configured slot",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the friend list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(cmd, func(store *usecase.FriendStore) error {
					c.printFriends(cmd, store.Friends())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <email>",
			Short: "Add a friend by email",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(cmd, func(store *usecase.FriendStore) error {
					list, err := store.Add(cmd.Context(), args[0])
					if err := c.warnPersistence(cmd, err); err != nil {
						return err
					}
					c.printFriends(cmd, list)
					return nil
				})
			},
		},
		c.newRemoveCmd(),
	)

	return cmd
}

func (c *cli) newRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a friend after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(store *usecase.FriendStore) error {
				target, ok := findFriend(store.Friends(), args[0])
				if !ok {
					return fmt.Errorf("%s is not in your friend list", args[0])
				}

				if err := store.RequestRemoval(target); err != nil {
					return err
				}

				if !yes && !confirm(cmd, usecase.ConfirmationPrompt(target)) {
					if err := store.CancelRemoval(); err != nil {
						return err
					}
					c.printf(cmd, "Cancelled.\n")
					return nil
				}

				_, _, err := store.ConfirmRemoval(cmd.Context())
				if err := c.warnPersistence(cmd, err); err != nil {
					return err
				}
				c.printf(cmd, "%s\n", usecase.DeletionNotice(target))

				return store.Acknowledge()
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// withStore opens the configured slot, loads the owner's list and runs fn.
func (c *cli) withStore(cmd *cobra.Command, fn func(*usecase.FriendStore) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	open, closeSlots, err := infra.OpenSlots(ctx, c.cfg.Slot, c.logger)
	if err != nil {
		return err
	}
	defer closeSlots()

	store := usecase.NewFriendStore(c.owner, open(c.owner), c.directory(), c.logger)
	if _, err := store.Load(ctx); err != nil {
		if err := c.warnPersistence(cmd, err); err != nil {
			return err
		}
	}

	return fn(store)
}

// warnPersistence prints persistence failures and swallows them; the list
// in memory is still correct for this invocation.
func (c *cli) warnPersistence(cmd *cobra.Command, err error) error {
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		c.logger.Warn("friends: persistence failed", zap.Error(err))
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: changes may not survive: %s\n", perr)
		return nil
	}

	return err
}

func (c *cli) printFriends(cmd *cobra.Command, list domain.FriendList) {
	if len(list) == 0 {
		c.printf(cmd, "No friends yet.\n")
		return
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.Email)
	}
	tw.Flush()
}

func findFriend(list domain.FriendList, email string) (domain.Friend, bool) {
	for _, f := range list {
		if f.Email == email {
			return f, true
		}
	}

	return domain.Friend{}, false
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
