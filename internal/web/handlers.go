package web

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"switchdeck/internal/device"
	"switchdeck/internal/gateway"
	"switchdeck/internal/logging"
	"switchdeck/internal/models"
	"switchdeck/internal/portview"
	"switchdeck/internal/registry"
	"switchdeck/internal/session"
	"switchdeck/internal/users"
)

// Server wires the components behind the HTTP surface.
type Server struct {
	Registry  *registry.Registry
	Editor    *device.Editor
	Guard     *session.Guard
	Tokens    *session.TokenManager
	Directory *users.Directory
}

// SetupRoutes registers all routes on the Fiber app.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/login", s.RedirectIfAuthenticated(), s.loginPage)
	app.Post("/login", s.login)
	app.Post("/logout", s.logout)

	authed := app.Group("/", s.RequireSession())
	authed.Get("/", s.dashboard)
	authed.Post("/refresh", s.refresh)

	authed.Post("/switches", s.createSwitch)
	authed.Post("/switches/:id/select", s.selectSwitch)
	authed.Post("/switches/:id/edit", s.editSwitch)
	authed.Post("/switches/:id/delete", s.deleteSwitch)
	authed.Post("/switches/:id/ports", s.addPorts)
	authed.Post("/switches/:id/ports/:number/device", s.saveDevice)
	authed.Post("/switches/:id/ports/:number/device/delete", s.removeDevice)

	authed.Get("/user-management", s.userManagement)
	authed.Post("/users", s.inviteUser)
	authed.Post("/users/promote", s.promoteFirstAdmin)
	authed.Post("/users/:id/edit", s.updateUser)
	authed.Post("/users/:id/delete", s.deleteUser)
}

func (s *Server) loginPage(c *fiber.Ctx) error {
	msg, errMsg := popFlash(c)
	return c.Render("login", fiber.Map{
		"Message": msg,
		"Error":   errMsg,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	token, _, err := s.Guard.SignIn(c.Context(), email, password)
	if err != nil {
		logging.Logger.WithError(err).WithField("email", email).Warn("sign-in failed")
		flashError(c, session.FriendlyMessage(err))
		return c.Redirect("/login")
	}

	setSessionCookie(c, token, s.Tokens.TTL())
	flash(c, "Signed in successfully.")
	return c.Redirect("/")
}

func (s *Server) logout(c *fiber.Ctx) error {
	clearSessionCookie(c)
	return c.Redirect("/login")
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	profile := currentProfile(c)

	var loadErr string
	switches, err := s.Registry.List(c.Context())
	if err != nil {
		// Stale view: render last known state with the error surfaced.
		switches = s.Registry.Switches()
		loadErr = "Could not load switches from the database. Showing last known state."
	}

	if id := c.Query("sw"); id != "" {
		if err := s.Registry.Select(id); err == nil {
			return c.Redirect("/")
		}
	}

	activeID := s.Registry.ActiveID()
	var active *models.Switch
	for i := range switches {
		if switches[i].ID == activeID {
			active = &switches[i]
		}
	}

	term := c.Query("q")
	data := fiber.Map{
		"Profile":       profile,
		"Switches":      switches,
		"Active":        active,
		"SearchTerm":    term,
		"DeviceClasses": models.DeviceClasses(),
	}
	if active != nil {
		filtered := portview.Filter(active.Ports, term)
		data["Blocks"] = portview.Blocks(filtered)
		data["Stats"] = portview.Aggregate(active.Ports)
		data["EmptyMessage"] = emptyMessage(portview.ClassifyEmpty(len(active.Ports), len(filtered), term), term)
	}
	msg, errMsg := popFlash(c)
	if loadErr != "" {
		errMsg = loadErr
	}
	data["Message"], data["Error"] = msg, errMsg

	return c.Render("dashboard", data)
}

// refresh is the dashboard's "refresh switch" action. No probing happens;
// the registry is re-read from the store.
func (s *Server) refresh(c *fiber.Ctx) error {
	if _, err := s.Registry.List(c.Context()); err != nil {
		flashError(c, "Refresh failed: "+err.Error())
		return c.Redirect("/")
	}
	flash(c, "Port status checked. (Simulated)")
	return c.Redirect("/")
}

func (s *Server) createSwitch(c *fiber.Ctx) error {
	name := c.FormValue("name")
	count, _ := strconv.Atoi(c.FormValue("ports"))

	sw, err := s.Registry.Create(c.Context(), name, count)
	if err != nil {
		flashError(c, mutationMessage(err))
		return c.Redirect("/")
	}
	flash(c, "Switch \""+sw.Name+"\" added.")
	return c.Redirect("/")
}

func (s *Server) selectSwitch(c *fiber.Ctx) error {
	if err := s.Registry.Select(c.Params("id")); err != nil {
		flashError(c, mutationMessage(err))
	}
	return c.Redirect("/")
}

func (s *Server) editSwitch(c *fiber.Ctx) error {
	name := c.FormValue("name")
	count, _ := strconv.Atoi(c.FormValue("ports"))

	err := s.Registry.RenameResize(c.Context(), c.Params("id"), name, count)
	if err != nil {
		flashError(c, mutationMessage(err))
		return c.Redirect("/")
	}
	flash(c, "Switch \""+name+"\" updated.")
	return c.Redirect("/")
}

func (s *Server) deleteSwitch(c *fiber.Ctx) error {
	// The form carries the user's affirmative confirmation; deletion
	// cascades to every port on the switch.
	confirmed := c.FormValue("confirm") == "yes"
	err := s.Registry.Delete(c.Context(), c.Params("id"), confirmed)
	if err != nil {
		flashError(c, mutationMessage(err))
		return c.Redirect("/")
	}
	flash(c, "Switch removed.")
	return c.Redirect("/")
}

func (s *Server) addPorts(c *fiber.Ctx) error {
	count, err := strconv.Atoi(c.FormValue("count", "8"))
	if err != nil || count <= 0 {
		flashError(c, "Number of ports must be a positive integer.")
		return c.Redirect("/")
	}
	if err := s.Registry.AddPorts(c.Context(), c.Params("id"), count); err != nil {
		flashError(c, mutationMessage(err))
		return c.Redirect("/")
	}
	flash(c, strconv.Itoa(count)+" ports added.")
	return c.Redirect("/")
}

func (s *Server) saveDevice(c *fiber.Ctx) error {
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	form := device.Form{
		Name:  c.FormValue("name"),
		MAC:   c.FormValue("mac"),
		IP:    c.FormValue("ip"),
		Class: c.FormValue("class"),
	}
	if err := s.Editor.Commit(c.Context(), c.Params("id"), number, form); err != nil {
		flashError(c, mutationMessage(err))
		return c.Redirect("/")
	}
	flash(c, "Device saved on port "+strconv.Itoa(number)+".")
	return c.Redirect("/")
}

func (s *Server) removeDevice(c *fiber.Ctx) error {
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	if err := s.Editor.Remove(c.Context(), c.Params("id"), number); err != nil {
		flashError(c, mutationMessage(err))
		return c.Redirect("/")
	}
	flash(c, "Device removed from port "+strconv.Itoa(number)+".")
	return c.Redirect("/")
}

func (s *Server) userManagement(c *fiber.Ctx) error {
	profile := currentProfile(c)
	msg, errMsg := popFlash(c)

	list, err := s.Directory.Handle(c.Context(), profile, users.Request{Action: users.ActionListUsers})
	if errors.Is(err, users.ErrForbidden) {
		// No admin rights. If no admin exists at all, offer the one-time
		// first-admin promotion; otherwise it is a plain denial.
		if !profile.IsAdmin() {
			return c.Render("first_admin", fiber.Map{
				"Profile": profile,
				"Message": msg,
				"Error":   errMsg,
			})
		}
		return c.Render("denied", fiber.Map{"Profile": profile})
	}
	if err != nil {
		flashError(c, "Could not load users: "+err.Error())
		return c.Redirect("/")
	}

	return c.Render("users", fiber.Map{
		"Profile": profile,
		"Users":   list,
		"Roles":   []models.Role{models.RoleAdmin, models.RoleFeeder},
		"Message": msg,
		"Error":   errMsg,
	})
}

func (s *Server) inviteUser(c *fiber.Ctx) error {
	profile := currentProfile(c)
	_, err := s.Directory.Handle(c.Context(), profile, users.Request{
		Action: users.ActionInviteUser,
		UserData: &users.UserData{
			Email:    c.FormValue("email"),
			Password: c.FormValue("password"),
			FullName: c.FormValue("full_name"),
			Role:     models.Role(c.FormValue("role")),
		},
	})
	if err != nil {
		flashError(c, "Could not invite user: "+err.Error())
	} else {
		flash(c, "User invited.")
	}
	return c.Redirect("/user-management")
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	profile := currentProfile(c)
	_, err := s.Directory.Handle(c.Context(), profile, users.Request{
		Action: users.ActionUpdateUserRole,
		UserData: &users.UserData{
			UserID:   c.Params("id"),
			FullName: c.FormValue("full_name"),
			Role:     models.Role(c.FormValue("role")),
		},
	})
	if err != nil {
		flashError(c, "Could not update user: "+err.Error())
	} else {
		flash(c, "User updated.")
	}
	return c.Redirect("/user-management")
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	profile := currentProfile(c)
	if c.FormValue("confirm") != "yes" {
		flashError(c, "Deletion requires confirmation.")
		return c.Redirect("/user-management")
	}
	_, err := s.Directory.Handle(c.Context(), profile, users.Request{
		Action:   users.ActionDeleteUser,
		UserData: &users.UserData{UserID: c.Params("id")},
	})
	if err != nil {
		flashError(c, "Could not delete user: "+err.Error())
	} else {
		flash(c, "User deleted.")
	}
	return c.Redirect("/user-management")
}

func (s *Server) promoteFirstAdmin(c *fiber.Ctx) error {
	profile := currentProfile(c)
	_, err := s.Directory.Handle(c.Context(), profile, users.Request{Action: users.ActionPromoteFirstAdmin})
	if err != nil {
		flashError(c, "Promotion failed. This is only possible for the first user.")
	} else {
		flash(c, "You are now an administrator.")
	}
	return c.Redirect("/user-management")
}

// emptyMessage renders the three distinct no-ports conditions.
func emptyMessage(state portview.EmptyState, term string) string {
	switch state {
	case portview.NoSearchResults:
		return "No ports found for \"" + term + "\"."
	case portview.NoPortsConfigured:
		return "This switch has no ports configured."
	case portview.NoMatches:
		return "No ports found for the current criteria."
	default:
		return ""
	}
}

// mutationMessage maps component errors to user-facing text. Validation
// failures never reached the store; gateway failures left local state at
// last known good.
func mutationMessage(err error) string {
	var ve *device.ValidationError
	if errors.As(err, &ve) {
		switch ve.Reason {
		case device.ReasonRequired:
			return "All device fields are required."
		case device.ReasonInvalidMAC:
			return "Invalid MAC format. Use: XX:XX:XX:XX:XX:XX"
		case device.ReasonInvalidIP:
			return "Invalid IP format."
		case device.ReasonInvalidClass:
			return "Unknown device type."
		}
	}

	var ge *gateway.Error
	switch {
	case errors.Is(err, registry.ErrBusy):
		return "Another operation is still in progress. Try again in a moment."
	case errors.Is(err, registry.ErrEmptyName):
		return "Switch name is required."
	case errors.Is(err, registry.ErrBadPortCount):
		return "Number of ports must be a positive integer."
	case errors.Is(err, registry.ErrNotConfirmed):
		return "This action requires confirmation."
	case errors.Is(err, registry.ErrNotFound):
		return "Switch not found."
	case errors.As(err, &ge):
		return "Database operation failed: " + ge.Err.Error()
	default:
		return err.Error()
	}
}
