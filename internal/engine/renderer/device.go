package renderer

import (
	"errors"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/simview/internal/engine/gpu"
)

// Vertex attribute locations shared by both programs.
const (
	attrPosition = 0
	attrNormal   = 1
	attrTexCoord = 2
)

// NewBuffer implements gpu.Device.
func (r *Renderer) NewBuffer(data []float32) (gpu.Buffer, error) {
	if len(data) == 0 {
		return 0, errors.New("renderer: empty vertex buffer")
	}
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, errors.New("renderer: glGenBuffers returned 0")
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	b := gpu.Buffer(id)
	r.buffers[b] = struct{}{}
	return b, nil
}

// DeleteBuffers implements gpu.Device.
func (r *Renderer) DeleteBuffers(bufs ...gpu.Buffer) {
	for _, b := range bufs {
		if b == 0 {
			continue
		}
		id := uint32(b)
		gl.DeleteBuffers(1, &id)
		delete(r.buffers, b)
	}
}

// SetBlend implements gpu.Device. Constant alpha blends with the alpha of
// the blend color; tinted blends weigh each channel by the color.
func (r *Renderer) SetBlend(state gpu.BlendState) {
	if !state.Enabled || state.Mode == gpu.Opaque {
		gl.Disable(gl.BLEND)
		return
	}
	c := state.Color
	gl.Enable(gl.BLEND)
	gl.BlendColor(c[0], c[1], c[2], c[3])
	switch state.Mode {
	case gpu.AlphaConstant:
		gl.BlendFunc(gl.CONSTANT_ALPHA, gl.ONE_MINUS_CONSTANT_ALPHA)
	case gpu.AdditiveTinted:
		gl.BlendFunc(gl.CONSTANT_COLOR, gl.ONE_MINUS_CONSTANT_COLOR)
	}
}

// SetDepthWrite implements gpu.Device.
func (r *Renderer) SetDepthWrite(enabled bool) {
	gl.DepthMask(enabled)
}

// Draw implements gpu.Device.
func (r *Renderer) Draw(c gpu.DrawCall) {
	if c.NumVerts == 0 || c.Vertices == 0 || int(c.Program) >= len(r.programs) {
		return
	}
	prog := r.programs[c.Program]
	if prog == nil {
		return
	}
	prog.Use()
	gl.BindVertexArray(r.vao)

	mv := gpu.Mat32(c.ModelView)
	proj := gpu.Mat32(c.Projection)
	gl.UniformMatrix4fv(prog.Uniform("uModelView"), 1, false, &mv[0])
	gl.UniformMatrix4fv(prog.Uniform("uProjection"), 1, false, &proj[0])
	gl.Uniform4f(prog.Uniform("uColor"), c.Color[0], c.Color[1], c.Color[2], c.Color[3])

	bindAttrib(attrPosition, c.Vertices, 3)
	mode := uint32(gl.LINES)
	if c.Program == gpu.MeshProgram {
		nm := gpu.Mat32(c.NormalMat)
		gl.UniformMatrix4fv(prog.Uniform("uNormalMat"), 1, false, &nm[0])
		dir, color, ambient := r.config.Sun.Uniforms()
		gl.Uniform3fv(prog.Uniform("uSunDir"), 1, &dir[0])
		gl.Uniform3fv(prog.Uniform("uSunColor"), 1, &color[0])
		gl.Uniform1f(prog.Uniform("uAmbient"), ambient)
		if c.Normals != 0 {
			bindAttrib(attrNormal, c.Normals, 3)
		} else {
			gl.DisableVertexAttribArray(attrNormal)
			gl.VertexAttrib3f(attrNormal, 0, 0, 1)
		}

		tex := r.glTexture(c.Texture)
		if tex != 0 && c.TexCoords != 0 {
			bindAttrib(attrTexCoord, c.TexCoords, 2)
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, tex)
			gl.Uniform1i(prog.Uniform("uTexture"), 0)
			gl.Uniform1i(prog.Uniform("uUseTexture"), 1)
		} else {
			gl.DisableVertexAttribArray(attrTexCoord)
			gl.Uniform1i(prog.Uniform("uUseTexture"), 0)
		}
		if c.Primitive == gpu.Triangles {
			mode = gl.TRIANGLES
		}
	} else {
		gl.DisableVertexAttribArray(attrNormal)
		gl.DisableVertexAttribArray(attrTexCoord)
	}

	gl.DrawArrays(mode, 0, int32(c.NumVerts))
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.stats.DrawCalls++
	r.stats.Vertices += c.NumVerts
}

func bindAttrib(loc uint32, b gpu.Buffer, size int32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.EnableVertexAttribArray(loc)
	gl.VertexAttribPointerWithOffset(loc, size, gl.FLOAT, false, 0, 0)
}

// glTexture maps a handle to a GL texture name. Loading textures draw
// untextured; failed ones use the placeholder.
func (r *Renderer) glTexture(h gpu.TextureHandle) uint32 {
	switch h {
	case gpu.NoTexture, gpu.LoadingTexture:
		return 0
	case gpu.BadTexture:
		return r.badTexture
	}
	return uint32(h)
}

// UploadTexture implements texture.Uploader.
func (r *Renderer) UploadTexture(img *image.RGBA) (gpu.TextureHandle, error) {
	b := img.Bounds()
	if b.Empty() {
		return gpu.BadTexture, errors.New("renderer: empty texture")
	}
	pix := img.Pix
	if img.Stride != 4*b.Dx() {
		compact := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(compact.Pix[y*compact.Stride:], img.Pix[y*img.Stride:y*img.Stride+4*b.Dx()])
		}
		pix = compact.Pix
	}

	id := uploadRGBA(pix, int32(b.Dx()), int32(b.Dy()), true)
	if id == 0 {
		return gpu.BadTexture, errors.New("renderer: glGenTextures returned 0")
	}
	h := gpu.TextureHandle(id)
	r.textures[h] = struct{}{}
	return h, nil
}

// DeleteTexture implements texture.Uploader.
func (r *Renderer) DeleteTexture(h gpu.TextureHandle) {
	if _, ok := r.textures[h]; !ok {
		return
	}
	id := uint32(h)
	gl.DeleteTextures(1, &id)
	delete(r.textures, h)
}

func uploadRGBA(pix []uint8, width, height int32, mipmaps bool) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// createBadTexture builds the magenta checker drawn for textures that
// failed to load.
func (r *Renderer) createBadTexture() uint32 {
	return uploadRGBA(badTexturePixels(), 2, 2, false)
}

func badTexturePixels() []uint8 {
	magenta := []uint8{255, 0, 255, 255}
	black := []uint8{0, 0, 0, 255}
	var pix []uint8
	for i := 0; i < 4; i++ {
		if (i/2+i%2)%2 == 0 {
			pix = append(pix, magenta...)
		} else {
			pix = append(pix, black...)
		}
	}
	return pix
}
