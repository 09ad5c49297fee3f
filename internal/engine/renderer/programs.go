package renderer

// Mesh program: flat color or texture, lit by the sun. Normals arrive in
// world space, which is what uNormalMat maps to.
const meshVertexSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;

uniform mat4 uModelView;
uniform mat4 uProjection;
uniform mat4 uNormalMat;

out vec3 vNormal;
out vec2 vTexCoord;

void main() {
	vNormal = mat3(uNormalMat) * aNormal;
	vTexCoord = aTexCoord;
	gl_Position = uProjection * uModelView * vec4(aPos, 1.0);
}
`

const meshFragmentSrc = `
#version 410 core

in vec3 vNormal;
in vec2 vTexCoord;

uniform vec4 uColor;
uniform sampler2D uTexture;
uniform int uUseTexture;
uniform vec3 uSunDir;
uniform vec3 uSunColor;
uniform float uAmbient;

out vec4 FragColor;

void main() {
	vec4 base = uColor;
	if (uUseTexture == 1) {
		base = texture(uTexture, vTexCoord);
	}
	float diffuse = 0.0;
	if (length(vNormal) > 0.0) {
		diffuse = max(dot(normalize(vNormal), uSunDir), 0.0);
	}
	vec3 light = uSunColor * (uAmbient + (1.0 - uAmbient) * diffuse);
	FragColor = vec4(base.rgb * light, base.a);
}
`

// Line program: unlit, single color.
const lineVertexSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uModelView;
uniform mat4 uProjection;

void main() {
	gl_Position = uProjection * uModelView * vec4(aPos, 1.0);
}
`

const lineFragmentSrc = `
#version 410 core

uniform vec4 uColor;

out vec4 FragColor;

void main() {
	FragColor = uColor;
}
`
