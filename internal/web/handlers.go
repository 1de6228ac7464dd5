package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"beefsteak/internal/identity"
	"beefsteak/internal/service"
	"beefsteak/internal/session"
)

type listForm struct {
	Name        string `form:"list-name"`
	Description string `form:"list-description"`
	Task1       string `form:"task-1"`
	Task2       string `form:"task-2"`
	Task3       string `form:"task-3"`
}

type registerForm struct {
	UserName  string `form:"user_name"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
	Password  string `form:"password"`
}

type loginForm struct {
	UserName string `form:"user_name"`
	Password string `form:"password"`
}

type groupForm struct {
	Name        string `form:"group-name"`
	Description string `form:"group-description"`
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, ok := identity.ParseID(raw)
	if !ok {
		return 0, fmt.Errorf("%s %q: %w", name, raw, service.ErrNotFound)
	}
	return id, nil
}

func badForm(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "Invalid form: "+err.Error())
}

func (s *Server) home(c *fiber.Ctx) error {
	if _, ok := session.New(jarOf(c)).Active(); ok {
		return c.Redirect("/inprogress")
	}
	return render(c, "index", fiber.Map{
		"completion_window_minutes": int(s.tasks.CompletionWindow().Minutes()),
	})
}

func (s *Server) submitList(c *fiber.Ctx) error {
	var form listForm
	if err := c.BodyParser(&form); err != nil {
		return badForm(err)
	}
	names := []string{form.Task1, form.Task2, form.Task3}

	list, err := s.tasks.SubmitList(c.UserContext(), identityOf(c), service.SubmitInput{
		Name:        form.Name,
		Description: form.Description,
		TaskNames:   names,
	})
	if err != nil {
		return err
	}

	if err := session.New(jarOf(c)).Start(session.NewTaskList(list.ID, names)); err != nil {
		return err
	}
	return c.Redirect("/inprogress")
}

func (s *Server) inProgress(c *fiber.Ctx) error {
	state := session.New(jarOf(c))
	active, ok := state.Active()
	if !ok {
		return c.Redirect("/")
	}

	summary, err := s.tasks.GetSummary(c.UserContext(), identityOf(c), active.TaskListID)
	if errors.Is(err, service.ErrNotFound) {
		state.Clear()
		return c.Redirect("/")
	}
	if err != nil {
		return err
	}
	if summary.List.CompletionStatus.Terminal() {
		state.Finish(summary.List.ID)
		return c.Redirect(fmt.Sprintf("/complete/list/%d", summary.List.ID))
	}

	return render(c, "tasks-inprogress", inProgressView{
		List:      summary.List,
		Tasks:     summary.Tasks,
		TaskNames: active.TaskNames,
		Deadline:  summary.List.CreatedAt.Add(s.tasks.CompletionWindow()),
	})
}

func (s *Server) restart(c *fiber.Ctx) error {
	session.New(jarOf(c)).Clear()
	return c.Redirect("/")
}

func (s *Server) completeTask(c *fiber.Ctx) error {
	taskID, err := paramID(c, "taskID")
	if err != nil {
		return err
	}
	if err := s.tasks.CompleteTask(c.UserContext(), identityOf(c), taskID, s.now()); err != nil {
		return err
	}
	return c.Redirect("/inprogress")
}

func (s *Server) failList(c *fiber.Ctx) error {
	listID, err := paramID(c, "listID")
	if err != nil {
		return err
	}
	if err := s.tasks.FailList(c.UserContext(), identityOf(c), listID); err != nil {
		return err
	}
	session.New(jarOf(c)).Finish(listID)
	return c.Redirect(fmt.Sprintf("/complete/list/%d", listID))
}

func (s *Server) completeList(c *fiber.Ctx) error {
	listID, err := paramID(c, "listID")
	if err != nil {
		return err
	}
	summary, err := s.tasks.CompleteList(c.UserContext(), identityOf(c), listID, s.now())
	if err != nil {
		return err
	}
	session.New(jarOf(c)).Finish(listID)
	return render(c, "tasks-complete", summary)
}

func (s *Server) listSummary(c *fiber.Ctx) error {
	listID, err := paramID(c, "listID")
	if err != nil {
		return err
	}
	summary, err := s.tasks.GetSummary(c.UserContext(), identityOf(c), listID)
	if err != nil {
		return err
	}
	return render(c, "tasks-complete", summary)
}

func (s *Server) deleteList(c *fiber.Ctx) error {
	listID, err := paramID(c, "listID")
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteList(c.UserContext(), identityOf(c), listID); err != nil {
		return err
	}
	return c.Redirect("/profile")
}

func (s *Server) lastResult(c *fiber.Ctx) error {
	listID, ok := session.New(jarOf(c)).LastCompleted()
	if !ok {
		return fmt.Errorf("last session: %w", service.ErrNotFound)
	}
	return c.Redirect(fmt.Sprintf("/complete/list/%d", listID))
}

func (s *Server) register(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return badForm(err)
	}
	_, err := s.accounts.Register(c.UserContext(), service.RegisterInput{
		UserName:  form.UserName,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		return err
	}
	return c.Redirect("/login")
}

func (s *Server) login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return badForm(err)
	}
	user, err := s.accounts.Authenticate(c.UserContext(), form.UserName, form.Password)
	if err != nil {
		return err
	}
	session.SignIn(jarOf(c), s.verifier, user.ID, user.GroupID)
	return c.Redirect("/")
}

func (s *Server) logout(c *fiber.Ctx) error {
	session.SignOut(jarOf(c))
	return c.Redirect("/")
}

func (s *Server) groupPage(c *fiber.Ctx) error {
	view, err := s.groups.GroupView(c.UserContext(), identityOf(c))
	if err != nil {
		return err
	}
	session.SetGroupHint(jarOf(c), &view.Group.ID)
	return render(c, "groups", view)
}

func (s *Server) joinGroup(c *fiber.Ctx) error {
	// An unparsable id is treated like an unknown one.
	groupID, _ := identity.ParseID(strings.TrimSpace(c.FormValue("groupId")))
	if err := s.groups.JoinGroup(c.UserContext(), identityOf(c), groupID); err != nil {
		return err
	}
	session.SetGroupHint(jarOf(c), &groupID)
	return c.Redirect("/groups")
}

func (s *Server) createGroup(c *fiber.Ctx) error {
	var form groupForm
	if err := c.BodyParser(&form); err != nil {
		return badForm(err)
	}
	if _, err := s.groups.CreateGroup(c.UserContext(), identityOf(c), form.Name, form.Description); err != nil {
		return err
	}
	return c.Redirect("/groups")
}

func (s *Server) ownProfile(c *fiber.Ctx) error {
	return c.Redirect(fmt.Sprintf("/profile/view/%d", identityOf(c).UserID))
}

func (s *Server) profile(c *fiber.Ctx) error {
	userID, err := paramID(c, "userID")
	if err != nil {
		return err
	}
	p, err := s.stats.Profile(c.UserContext(), userID, s.now())
	if err != nil {
		return err
	}
	return render(c, "profile", newProfileView(p, identityOf(c).Owns(userID)))
}

func (s *Server) dailyStats(c *fiber.Ctx) error {
	userID, err := paramID(c, "userID")
	if err != nil {
		return err
	}
	stats, err := s.stats.ProfileStats(c.UserContext(), userID, s.now())
	if err != nil {
		return err
	}
	return render(c, "daily-stats", stats.Daily)
}

func static(view string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, view, nil)
	}
}
