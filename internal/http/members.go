package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/session"
)

type memberForm struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Phone   string `form:"phone"`
	Address string `form:"address"`
}

func memberFormFrom(m *entities.Member) memberForm {
	return memberForm{Name: m.Name, Email: m.Email, Phone: m.Phone, Address: m.Address}
}

func (f memberForm) input() services.MemberInput {
	return services.MemberInput{Name: f.Name, Email: f.Email, Phone: f.Phone, Address: f.Address}
}

type MembersController struct {
	pages
	members MemberDirectory
}

func NewMembersController(p pages, members MemberDirectory) *MembersController {
	return &MembersController{pages: p, members: members}
}

// GET /members
func (mc *MembersController) List(c *gin.Context) {
	query := c.Query("search")
	members, err := mc.members.ListMembers(c.Request.Context(), query)
	if err != nil {
		mc.internalError(c, err, "list members")
		return
	}

	mc.render(c, http.StatusOK, "members", gin.H{
		"Title":       "Members",
		"Members":     members,
		"SearchQuery": query,
	})
}

// Show renders a member with their loan history, newest first.
// GET /members/:id
func (mc *MembersController) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, loans, err := mc.members.MemberLoans(c.Request.Context(), id)
	if err != nil {
		mc.memberError(c, err, "member loans")
		return
	}

	mc.render(c, http.StatusOK, "member", gin.H{
		"Title":  member.Name,
		"Member": member,
		"Loans":  loans,
	})
}

// GET /members/add
func (mc *MembersController) AddForm(c *gin.Context) {
	mc.render(c, http.StatusOK, "add_member", gin.H{
		"Title": "Add member",
		"Form":  memberForm{},
	})
}

// POST /members/add
func (mc *MembersController) Add(c *gin.Context) {
	var form memberForm
	_ = c.ShouldBind(&form)

	if _, err := mc.members.CreateMember(c.Request.Context(), form.input()); err != nil {
		if services.IsValidation(err) {
			mc.render(c, http.StatusBadRequest, "add_member", gin.H{"Title": "Add member", "Form": form}, errorNotice(err))
			return
		}
		mc.internalError(c, err, "create member")
		return
	}

	mc.redirect(c, "/members", session.FlashSuccess, "Member added successfully!")
}

// GET /members/edit/:id
func (mc *MembersController) EditForm(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := mc.members.GetMember(c.Request.Context(), id)
	if err != nil {
		mc.memberError(c, err, "get member")
		return
	}

	mc.render(c, http.StatusOK, "edit_member", gin.H{
		"Title":  "Edit " + member.Name,
		"Member": member,
		"Form":   memberFormFrom(member),
	})
}

// POST /members/edit/:id
func (mc *MembersController) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var form memberForm
	_ = c.ShouldBind(&form)

	if _, err := mc.members.UpdateMember(c.Request.Context(), id, form.input()); err != nil {
		if !services.IsValidation(err) {
			mc.memberError(c, err, "update member")
			return
		}
		member, getErr := mc.members.GetMember(c.Request.Context(), id)
		if getErr != nil {
			mc.memberError(c, getErr, "get member")
			return
		}
		mc.render(c, http.StatusBadRequest, "edit_member", gin.H{
			"Title":  "Edit " + member.Name,
			"Member": member,
			"Form":   form,
		}, errorNotice(err))
		return
	}

	mc.redirect(c, "/members", session.FlashSuccess, "Member updated successfully!")
}

// POST /members/delete/:id
func (mc *MembersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := mc.members.DeleteMember(c.Request.Context(), id); err != nil {
		if services.IsPrecondition(err) {
			mc.redirect(c, "/members", session.FlashError, err.Error())
			return
		}
		mc.memberError(c, err, "delete member")
		return
	}

	mc.redirect(c, "/members", session.FlashSuccess, "Member deleted successfully!")
}

func (mc *MembersController) memberError(c *gin.Context, err error, context string) {
	if services.IsNotFound(err) {
		c.String(http.StatusNotFound, "Member not found")
		return
	}
	mc.internalError(c, err, context)
}
