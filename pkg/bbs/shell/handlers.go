package shell

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/pkg/bbs/format"
	"github.com/marmos91/openbbs/pkg/bbs/models"
)

const license = "Released under the GNU Affero General Public License Version 3+."

func (s *Shell) help(_ context.Context, st *State, _, _ []string) error {
	return st.Term.Send(format.Help(st.Identity.Role))
}

func (s *Shell) rules(_ context.Context, st *State, _, _ []string) error {
	return st.Term.Send(st.settings.Rules)
}

func (s *Shell) info(_ context.Context, st *State, _, _ []string) error {
	return st.Term.Sendf("OpenBBS Server Version %s.\n%s", st.settings.Version, license)
}

func (s *Shell) unknown(_ context.Context, st *State, tokens, _ []string) error {
	return st.Term.Sendf("Unknown command: \"%s\"", tokens[0])
}

func (s *Shell) board(ctx context.Context, st *State, tokens, _ []string) error {
	name, err := argOrPrompt(st, tokens, 1, "Leave empty to return to the overboard.\nBOARD: ")
	if err != nil {
		return err
	}

	if name == "" || strings.EqualFold(name, Overboard{}.Display()) {
		st.Location = Overboard{}
		if err := st.Term.Send(format.Boards(st.settings.Boards)); err != nil {
			return err
		}
		return st.Term.Send("Successfully returned to the overboard.")
	}

	b, ok := st.settings.FindBoard(name)
	if !ok {
		return st.Term.Sendf("Board \"%s\" does not exist on this BBS.", name)
	}

	if err := s.showBoard(ctx, st, b.Key()); err != nil {
		return err
	}
	return st.Term.Sendf("Board successfully changed to \"%s\".", b.Key())
}

// showBoard moves the session to board and prints its thread listing.
func (s *Shell) showBoard(ctx context.Context, st *State, board string) error {
	roots, err := s.store.ListThreadRoots(ctx, board)
	if err != nil {
		return err
	}
	st.Location = Board{Name: board}
	return st.Term.Send(format.Threads(roots))
}

func (s *Shell) thread(ctx context.Context, st *State, tokens, _ []string) error {
	board, ok := boardOf(st.Location)
	if !ok {
		return st.Term.Send("There are no threads here.")
	}

	raw, err := argOrPrompt(st, tokens, 1, "Leave empty to return to the thread listing.\nTHREAD NUMBER: ")
	if err != nil {
		return err
	}

	if raw == "" {
		if err := s.showBoard(ctx, st, board); err != nil {
			return err
		}
		return st.Term.Sendf("Successfully returned to the %s home.", board)
	}

	id, err := parseID(raw)
	if err != nil {
		st.Location = Board{Name: board}
		return st.Term.Sendf("Thread %s does not exist.", raw)
	}

	posts, err := s.store.ListThread(ctx, id)
	if err != nil {
		return err
	}
	if len(posts) == 0 || posts[0].Board != board {
		st.Location = Board{Name: board}
		return st.Term.Sendf("Thread %s does not exist.", raw)
	}

	st.Location = Thread{Board: board, RootID: id}
	if err := st.Term.Send(format.Thread(posts)); err != nil {
		return err
	}
	return st.Term.Sendf("Current thread changed to %d.", id)
}

func (s *Shell) refresh(ctx context.Context, st *State, _, _ []string) error {
	switch loc := st.Location.(type) {
	case Thread:
		posts, err := s.store.ListThread(ctx, loc.RootID)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			if err := s.showBoard(ctx, st, loc.Board); err != nil {
				return err
			}
			return st.Term.Sendf("Thread %d does not exist.", loc.RootID)
		}
		return st.Term.Send(format.Thread(posts))
	case Board:
		return s.showBoard(ctx, st, loc.Name)
	default:
		return st.Term.Send(format.Boards(st.settings.Boards))
	}
}

func (s *Shell) post(ctx context.Context, st *State, _, _ []string) error {
	post := &models.Post{Author: st.Identity.Name}

	switch loc := st.Location.(type) {
	case Thread:
		body, err := st.Term.Prompt("REPLY: ")
		if err != nil {
			return err
		}
		root := loc.RootID
		post.Board = loc.Board
		post.ReplyTo = &root
		post.Body = body
	case Board:
		subject, err := st.Term.Prompt("SUBJECT: ")
		if err != nil {
			return err
		}
		body, err := st.Term.Prompt("BODY: ")
		if err != nil {
			return err
		}
		post.Board = loc.Name
		if subject != "" {
			post.Subject = &subject
		}
		post.Body = body
	default:
		return st.Term.Send("You can't post on the overboard.")
	}

	if post.Body == "" {
		return st.Term.Send("Posts cannot be empty.")
	}

	id, err := s.store.CreatePost(ctx, post)
	switch {
	case errors.Is(err, models.ErrEmptyPost):
		return st.Term.Send("Posts cannot be empty.")
	case errors.Is(err, models.ErrPostNotFound):
		// The thread was deleted while the reply was being typed.
		t := st.Location.(Thread)
		st.Location = Board{Name: t.Board}
		return st.Term.Sendf("Thread %d does not exist.", t.RootID)
	case err != nil:
		return err
	}

	logger.DebugCtx(ctx, "post created", logger.PostID(id), logger.KeyBoard, post.Board)
	return st.Term.Send("Successfully posted.")
}

func (s *Shell) inbox(ctx context.Context, st *State, _, _ []string) error {
	msgs, err := s.store.FetchInbox(ctx, st.Identity.Name)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return st.Term.Send("Your inbox is empty.")
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, format.InboxLine(m))
	}
	return st.Term.Send(strings.Join(lines, "\n"))
}

func (s *Shell) send(ctx context.Context, st *State, tokens, _ []string) error {
	receiver, err := argOrPrompt(st, tokens, 1, "RECEIVER: ")
	if err != nil {
		return err
	}
	body, err := restOrPrompt(st, tokens, 2, "MESSAGE: ")
	if err != nil {
		return err
	}
	if body == "" {
		return st.Term.Send("Messages cannot be empty.")
	}

	ok, err := s.store.SendMessage(ctx, st.Identity.Name, receiver, body)
	if err != nil {
		return err
	}
	if !ok {
		return st.Term.Sendf("User %s does not exist.", receiver)
	}

	logger.DebugCtx(ctx, "message sent", logger.KeyReceiver, models.NormalizeUsername(receiver))
	return st.Term.Send("Message successfully sent.")
}

func (s *Shell) deletePost(ctx context.Context, st *State, tokens, _ []string) error {
	raw, err := argOrPrompt(st, tokens, 1, "POST ID: ")
	if err != nil {
		return err
	}

	id, err := parseID(raw)
	if err != nil {
		return st.Term.Sendf("Invalid post ID \"%s\".", raw)
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "post deleted", logger.PostID(id))
	return st.Term.Sendf("Post %d successfully deleted.", id)
}

func (s *Shell) ban(ctx context.Context, st *State, tokens, _ []string) error {
	target, err := argOrPrompt(st, tokens, 1, "USER: ")
	if err != nil {
		return err
	}
	reason, err := restOrPrompt(st, tokens, 2, "REASON: ")
	if err != nil {
		return err
	}

	if err := s.store.Ban(ctx, reason, &target, nil); err != nil {
		if isUserError(err) {
			return st.Term.Send("A username is required.")
		}
		return err
	}

	logger.InfoCtx(ctx, "user banned", logger.KeyTarget, target, logger.KeyReason, reason)
	return st.Term.Sendf("User %s successfully banned.", target)
}

func (s *Shell) unban(ctx context.Context, st *State, tokens, _ []string) error {
	target, err := argOrPrompt(st, tokens, 1, "USER: ")
	if err != nil {
		return err
	}

	n, err := s.store.Unban(ctx, &target, nil)
	if err != nil {
		if isUserError(err) {
			return st.Term.Send("A username is required.")
		}
		return err
	}

	logger.InfoCtx(ctx, "user unbanned", logger.KeyTarget, target, logger.KeyCount, n)
	return st.Term.Sendf("User %s successfully unbanned.", target)
}

// setRole backs both op and deop; args[0] is the role to assign.
func (s *Shell) setRole(ctx context.Context, st *State, tokens, args []string) error {
	target, err := argOrPrompt(st, tokens, 1, "USER: ")
	if err != nil {
		return err
	}

	role := models.Role(args[0])
	if err := s.store.SetRole(ctx, target, role); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "role changed", logger.KeyTarget, target, logger.KeyRole, string(role))
	if role == models.RoleOperator {
		return st.Term.Sendf("User %s successfully sysop'd.", target)
	}
	return st.Term.Sendf("User %s successfully deop'd.", target)
}

// parseID accepts "42" or "#42".
func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(raw, "#"), 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}
